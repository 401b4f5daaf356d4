package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/aalbusoiu/workshop-platform/internal/middleware"
	"github.com/aalbusoiu/workshop-platform/internal/models"
	"github.com/aalbusoiu/workshop-platform/internal/session"
	"github.com/aalbusoiu/workshop-platform/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExportHandler serves participant-list downloads for session owners and
// admins.
type ExportHandler struct {
	Engine *session.Engine
}

func NewExportHandler(engine *session.Engine) *ExportHandler {
	return &ExportHandler{Engine: engine}
}

func (h *ExportHandler) participants(c *gin.Context) ([]models.Participant, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return nil, false
	}
	list, err := h.Engine.GetParticipants(id, user.ID, user.Role)
	if err != nil {
		respondEngineError(c, err)
		return nil, false
	}
	return list, true
}

// ExportCSV streams the participant list as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	list, ok := h.participants(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"participants_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Display name", "Color", "Joined at"})
	for _, p := range list {
		writer.Write([]string{
			p.DisplayName,
			p.ColorHex,
			p.JoinedAt.Format(time.RFC3339),
		})
	}
}

// ExportXLSX streams the participant list as an Excel workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	list, ok := h.participants(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Display name", "Color", "Joined at"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, head)
	}
	for row, p := range list {
		values := []interface{}{p.DisplayName, p.ColorHex, p.JoinedAt.Format(time.RFC3339)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"participants_%s.xlsx\"",
		uuid.New().String()[:8]))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "write workbook failed")
	}
}
