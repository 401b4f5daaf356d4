package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aalbusoiu/workshop-platform/internal/models"
	"github.com/aalbusoiu/workshop-platform/internal/store"
	"github.com/aalbusoiu/workshop-platform/internal/token"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// named shared-cache memory db, so pooled connections see one store
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Participant{},
		&models.SessionToken{},
		&models.SessionProfile{},
		&models.Round{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	iss, err := token.NewIssuer("test-secret", 30)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return NewEngine(newTestDB(t), iss, 6, 8, 100)
}

func mustCreate(t *testing.T, e *Engine, ownerID uint, max int) *models.Session {
	t.Helper()
	s, err := e.CreateSession(ownerID, max)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func mustJoin(t *testing.T, e *Engine, code string) *JoinResult {
	t.Helper()
	res, err := e.JoinByCode(JoinRequest{Code: code, ColorHex: "#FF0000"})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	return res
}

// ---------- createSession ----------

func TestCreateSession_Defaults(t *testing.T) {
	e := newTestEngine(t)

	s := mustCreate(t, e, 1, 0)
	if s.Status != models.StatusLobby {
		t.Errorf("status = %s, want LOBBY", s.Status)
	}
	if s.MaxParticipants != 8 {
		t.Errorf("max participants = %d, want default 8", s.MaxParticipants)
	}
	if len(s.Code) != 6 {
		t.Errorf("code %q not 6 chars", s.Code)
	}
}

func TestCreateSession_BadCapacity(t *testing.T) {
	e := newTestEngine(t)

	for _, max := range []int{1, -3, 101} {
		if _, err := e.CreateSession(1, max); !errors.Is(err, ErrValidation) {
			t.Errorf("CreateSession(max=%d) error = %v, want ErrValidation", max, err)
		}
	}
}

func TestCreateSession_CollisionRetryThenSuccess(t *testing.T) {
	e := newTestEngine(t)
	mustCreateWithCode(t, e, "AAAAAA")

	calls := 0
	e.GenerateCode = func(int) string {
		calls++
		if calls <= 2 {
			return "AAAAAA" // collides
		}
		return "BBBBBB"
	}

	s, err := e.CreateSession(1, 0)
	if err != nil {
		t.Fatalf("create after collisions: %v", err)
	}
	if s.Code != "BBBBBB" {
		t.Errorf("code = %s, want BBBBBB", s.Code)
	}
	if calls != 3 {
		t.Errorf("generator called %d times, want 3", calls)
	}
}

func TestCreateSession_CollisionExhaustion(t *testing.T) {
	e := newTestEngine(t)
	mustCreateWithCode(t, e, "AAAAAA")

	calls := 0
	e.GenerateCode = func(int) string {
		calls++
		return "AAAAAA"
	}

	if _, err := e.CreateSession(1, 0); !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("error = %v, want ErrCodeExhausted", err)
	}
	if calls != maxCodeAttempts {
		t.Errorf("generator called %d times, want %d", calls, maxCodeAttempts)
	}
}

func TestCreateSession_NonCollisionErrorNoRetry(t *testing.T) {
	e := newTestEngine(t)
	if err := e.DB.Migrator().DropTable(&models.Session{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	calls := 0
	e.GenerateCode = func(int) string {
		calls++
		return "CCCCCC"
	}

	_, err := e.CreateSession(1, 0)
	if err == nil || errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("error = %v, want plain store error", err)
	}
	if calls != 1 {
		t.Errorf("generator called %d times, want 1 (no retry)", calls)
	}
}

func mustCreateWithCode(t *testing.T, e *Engine, code string) *models.Session {
	t.Helper()
	prev := e.GenerateCode
	e.GenerateCode = func(int) string { return code }
	defer func() { e.GenerateCode = prev }()
	return mustCreate(t, e, 1, 0)
}

// ---------- join ----------

func TestJoin_IssuesUsableToken(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)

	res := mustJoin(t, e, s.Code)
	if res.SessionID != s.ID || res.ParticipantID == 0 || res.RawToken == "" {
		t.Fatalf("join result incomplete: %+v", res)
	}

	claims, err := e.Issuer.Verify(res.RawToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.SessionID != s.ID || claims.ParticipantID != res.ParticipantID {
		t.Errorf("claims = %+v, want scoped to join", claims)
	}

	// only the hash is stored
	var tokens []models.SessionToken
	if err := e.DB.Find(&tokens).Error; err != nil {
		t.Fatalf("load tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0].TokenHash != token.Hash(res.RawToken) {
		t.Errorf("stored token rows = %+v", tokens)
	}
}

func TestJoin_NormalizesCodeAndColor(t *testing.T) {
	e := newTestEngine(t)
	mustCreateWithCode(t, e, "ABC234")

	res, err := e.JoinByCode(JoinRequest{Code: " ab-c234 ", ColorHex: "#ff00aa", DisplayName: "  Ada "})
	if err != nil {
		t.Fatalf("join with messy input: %v", err)
	}

	var p models.Participant
	if err := e.DB.First(&p, res.ParticipantID).Error; err != nil {
		t.Fatalf("load participant: %v", err)
	}
	if p.ColorHex != "#FF00AA" {
		t.Errorf("color = %s, want #FF00AA", p.ColorHex)
	}
	if p.DisplayName != "Ada" {
		t.Errorf("display name = %q, want trimmed", p.DisplayName)
	}
}

func TestJoin_UnknownCode(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.JoinByCode(JoinRequest{Code: "ZZZZZZ", ColorHex: "#FF0000"})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestJoin_BadInput(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)

	cases := []JoinRequest{
		{Code: "", ColorHex: "#FF0000"},
		{Code: "AB", ColorHex: "#FF0000"},         // wrong length
		{Code: s.Code, ColorHex: "red"},           // bad color
		{Code: s.Code, ColorHex: "#GG0000"},       // bad hex
	}
	for _, req := range cases {
		if _, err := e.JoinByCode(req); !errors.Is(err, ErrValidation) {
			t.Errorf("JoinByCode(%+v) error = %v, want ErrValidation", req, err)
		}
	}
}

func TestJoin_NotLobby(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	if _, err := e.UpdateStatus(s.ID, 1, models.StatusRunning); err != nil {
		t.Fatalf("promote: %v", err)
	}

	_, err := e.JoinByCode(JoinRequest{Code: s.Code, ColorHex: "#FF0000"})
	if !errors.Is(err, ErrNotAccepting) {
		t.Fatalf("error = %v, want ErrNotAccepting", err)
	}

	// no participant or token row may exist
	var pCount, tCount int64
	e.DB.Model(&models.Participant{}).Count(&pCount)
	e.DB.Model(&models.SessionToken{}).Count(&tCount)
	if pCount != 0 || tCount != 0 {
		t.Errorf("rows after rejected join: participants=%d tokens=%d", pCount, tCount)
	}
}

func TestJoin_CapacityEnforced(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 2)

	mustJoin(t, e, s.Code)
	mustJoin(t, e, s.Code)

	_, err := e.JoinByCode(JoinRequest{Code: s.Code, ColorHex: "#00FF00"})
	if !errors.Is(err, ErrSessionFull) {
		t.Fatalf("error = %v, want ErrSessionFull", err)
	}

	count, err := store.CountParticipants(e.DB, s.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("participant count = %d, want 2", count)
	}
}

func TestJoin_RacingJoinsNeverOverfill(t *testing.T) {
	e := newTestEngine(t)

	// sqlite allows a single writer; serialize connections so racing
	// transactions queue instead of failing with a busy error
	sqlDB, err := e.DB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	const capacity = 3
	s := mustCreate(t, e, 1, capacity)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.JoinByCode(JoinRequest{Code: s.Code, ColorHex: "#00AAFF"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var admitted, full int
	for err := range errs {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrSessionFull):
			full++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}

	count, err := store.CountParticipants(e.DB, s.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count > capacity {
		t.Fatalf("capacity overflow: %d participants, max %d", count, capacity)
	}
	if int64(admitted) != count {
		t.Errorf("admitted %d joins but %d rows exist", admitted, count)
	}
	if admitted != capacity || full != attempts-capacity {
		t.Errorf("admitted=%d full=%d, want %d/%d", admitted, full, capacity, attempts-capacity)
	}
}

// ---------- leave ----------

func TestLeave_ExactlyOncePerToken(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	res := mustJoin(t, e, s.Code)

	if err := e.Leave(s.ID, res.RawToken); err != nil {
		t.Fatalf("first leave: %v", err)
	}

	// participant and token rows gone
	var pCount, tCount int64
	e.DB.Model(&models.Participant{}).Count(&pCount)
	e.DB.Model(&models.SessionToken{}).Count(&tCount)
	if pCount != 0 || tCount != 0 {
		t.Errorf("rows after leave: participants=%d tokens=%d", pCount, tCount)
	}

	if err := e.Leave(s.ID, res.RawToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("second leave error = %v, want ErrInvalidToken", err)
	}
}

func TestLeave_ForeignOrGarbageToken(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	other := mustCreate(t, e, 1, 0)
	res := mustJoin(t, e, other.Code)

	// token from another session and plain garbage read identically
	if err := e.Leave(s.ID, res.RawToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("cross-session leave error = %v, want ErrInvalidToken", err)
	}
	if err := e.Leave(s.ID, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage leave error = %v, want ErrInvalidToken", err)
	}
}

func TestLeave_NotLobby(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	res := mustJoin(t, e, s.Code)
	if _, err := e.UpdateStatus(s.ID, 1, models.StatusRunning); err != nil {
		t.Fatalf("promote: %v", err)
	}

	if err := e.Leave(s.ID, res.RawToken); !errors.Is(err, ErrForbidden) {
		t.Errorf("leave on RUNNING error = %v, want ErrForbidden", err)
	}
}

// ---------- status transitions ----------

func TestUpdateStatus_StateTable(t *testing.T) {
	statuses := []string{
		models.StatusLobby, models.StatusRunning,
		models.StatusEnded, models.StatusAbandoned,
	}
	legal := map[string]bool{
		"LOBBY>RUNNING":     true,
		"LOBBY>ABANDONED":   true,
		"RUNNING>ENDED":     true,
		"RUNNING>ABANDONED": true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := legal[from+">"+to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestUpdateStatus_RejectsIllegal(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)

	if _, err := e.UpdateStatus(s.ID, 1, models.StatusEnded); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("LOBBY->ENDED error = %v, want ErrIllegalTransition", err)
	}
	if _, err := e.UpdateStatus(s.ID, 1, models.StatusLobby); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("self transition error = %v, want ErrIllegalTransition", err)
	}
}

func TestUpdateStatus_PromotionOpensRound(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)

	updated, err := e.UpdateStatus(s.ID, 1, models.StatusRunning)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if updated.Status != models.StatusRunning {
		t.Errorf("status = %s, want RUNNING", updated.Status)
	}

	var rounds []models.Round
	if err := e.DB.Where("session_id = ?", s.ID).Find(&rounds).Error; err != nil {
		t.Fatalf("load rounds: %v", err)
	}
	if len(rounds) != 1 || rounds[0].Number != 1 {
		t.Errorf("rounds = %+v, want single round 1", rounds)
	}
}

func TestUpdateStatus_NonOwnerSeesNotFound(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)

	if _, err := e.UpdateStatus(s.ID, 99, models.StatusRunning); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("non-owner error = %v, want ErrSessionNotFound", err)
	}
}

// interleaveSessionUpdate registers a one-shot hook that commits its own
// status write right before the engine's guarded status update executes,
// standing in for a concurrent caller landing between read and write.
func interleaveSessionUpdate(t *testing.T, db *gorm.DB, sessionID uint, status string) {
	t.Helper()
	const name = "test:interleaved_status_write"
	fired := false
	err := db.Callback().Update().Before("gorm:update").Register(name, func(d *gorm.DB) {
		if fired || d.Statement.Table != "sessions" {
			return
		}
		fired = true
		d.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE sessions SET status = ? WHERE id = ?", status, sessionID)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	t.Cleanup(func() { _ = db.Callback().Update().Remove(name) })
}

func TestUpdateStatus_ConcurrentTransitionNotOverwritten(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)

	// another owner call abandons the session between the legality read
	// and the status write
	interleaveSessionUpdate(t, e.DB, s.ID, models.StatusAbandoned)

	if _, err := e.UpdateStatus(s.ID, 1, models.StatusRunning); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("error = %v, want ErrIllegalTransition", err)
	}

	cur, err := store.FindSessionByID(e.DB, s.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if cur.Status == models.StatusRunning {
		t.Errorf("stale transition committed: status = %s", cur.Status)
	}
}

func TestDeleteOrAbandon_ConcurrentEndNotClobbered(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	res := mustJoin(t, e, s.Code)
	if _, err := e.UpdateStatus(s.ID, 1, models.StatusRunning); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := e.SubmitProfile(s.ID, res.RawToken, "run data"); err != nil {
		t.Fatalf("submit profile: %v", err)
	}

	// the session reaches ENDED between the abandon branch's cleanup and
	// its status write; the whole call must roll back
	interleaveSessionUpdate(t, e.DB, s.ID, models.StatusEnded)

	if err := e.DeleteOrAbandon(s.ID, 1); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("error = %v, want ErrTerminalState", err)
	}

	cur, err := store.FindSessionByID(e.DB, s.ID)
	if err != nil {
		t.Fatalf("session row must survive: %v", err)
	}
	if cur.Status == models.StatusAbandoned {
		t.Errorf("abandon committed over a terminal session")
	}

	// no partial cascade: the rejected call must not have shed rows
	var pCount, profCount int64
	e.DB.Model(&models.Participant{}).Count(&pCount)
	e.DB.Model(&models.SessionProfile{}).Count(&profCount)
	if pCount != 1 || profCount != 1 {
		t.Errorf("participants=%d profiles=%d after rollback, want 1/1", pCount, profCount)
	}
}

// ---------- visibility ----------

func TestGetDetails_Visibility(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	mustJoin(t, e, s.Code)

	d, err := e.GetDetails(s.ID, 1, models.RoleFacilitator)
	if err != nil {
		t.Fatalf("owner details: %v", err)
	}
	if d.ParticipantCount != 1 {
		t.Errorf("count = %d, want 1", d.ParticipantCount)
	}
	if d.ProfileCount != 0 {
		t.Errorf("profile count = %d, want 0", d.ProfileCount)
	}

	if _, err := e.GetDetails(s.ID, 2, models.RoleAdmin); err != nil {
		t.Errorf("admin details: %v", err)
	}
	if _, err := e.GetDetails(s.ID, 2, models.RoleFacilitator); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger details error = %v, want ErrForbidden", err)
	}
	if _, err := e.GetDetails(9999, 1, models.RoleFacilitator); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("missing session error = %v, want ErrSessionNotFound", err)
	}
}

func TestGetParticipants_JoinOrder(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	first := mustJoin(t, e, s.Code)
	second := mustJoin(t, e, s.Code)

	list, err := e.GetParticipants(s.ID, 1, models.RoleFacilitator)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ParticipantID || list[1].ID != second.ParticipantID {
		t.Errorf("order wrong: %+v", list)
	}
}

// ---------- delete / abandon ----------

func TestDeleteOrAbandon_LobbyDeletesEverything(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreateWithCode(t, e, "DDDD22")
	res := mustJoin(t, e, s.Code)
	if _, err := e.SubmitProfile(s.ID, res.RawToken, "hello"); err != nil {
		t.Fatalf("submit profile: %v", err)
	}

	if err := e.DeleteOrAbandon(s.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, tbl := range []struct {
		name  string
		model interface{}
	}{
		{"sessions", &models.Session{}},
		{"participants", &models.Participant{}},
		{"tokens", &models.SessionToken{}},
		{"profiles", &models.SessionProfile{}},
	} {
		var n int64
		e.DB.Model(tbl.model).Count(&n)
		if n != 0 {
			t.Errorf("%s rows after lobby delete = %d, want 0", tbl.name, n)
		}
	}

	// the code is free for reuse once the row is gone
	reused := mustCreateWithCode(t, e, "DDDD22")
	if reused.Code != "DDDD22" {
		t.Errorf("reused code = %s, want DDDD22", reused.Code)
	}
}

func TestDeleteOrAbandon_RunningKeepsRunData(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	res := mustJoin(t, e, s.Code)
	if _, err := e.UpdateStatus(s.ID, 1, models.StatusRunning); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := e.SubmitProfile(s.ID, res.RawToken, "work in progress"); err != nil {
		t.Fatalf("submit profile: %v", err)
	}

	if err := e.DeleteOrAbandon(s.ID, 1); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	cur, err := store.FindSessionByID(e.DB, s.ID)
	if err != nil {
		t.Fatalf("session row must survive: %v", err)
	}
	if cur.Status != models.StatusAbandoned {
		t.Errorf("status = %s, want ABANDONED", cur.Status)
	}

	var pCount, tCount, profCount, roundCount int64
	e.DB.Model(&models.Participant{}).Count(&pCount)
	e.DB.Model(&models.SessionToken{}).Count(&tCount)
	e.DB.Model(&models.SessionProfile{}).Count(&profCount)
	e.DB.Model(&models.Round{}).Count(&roundCount)
	if pCount != 0 || tCount != 0 {
		t.Errorf("participants=%d tokens=%d after abandon, want 0/0", pCount, tCount)
	}
	if profCount != 1 || roundCount != 1 {
		t.Errorf("profiles=%d rounds=%d after abandon, want 1/1", profCount, roundCount)
	}
}

func TestDeleteOrAbandon_TerminalIsImmutable(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	if _, err := e.UpdateStatus(s.ID, 1, models.StatusRunning); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := e.UpdateStatus(s.ID, 1, models.StatusEnded); err != nil {
		t.Fatalf("end: %v", err)
	}

	if err := e.DeleteOrAbandon(s.ID, 1); !errors.Is(err, ErrTerminalState) {
		t.Errorf("delete ENDED error = %v, want ErrTerminalState", err)
	}

	cur, err := store.FindSessionByID(e.DB, s.ID)
	if err != nil || cur.Status != models.StatusEnded {
		t.Errorf("session mutated by rejected delete: %+v, %v", cur, err)
	}
}

func TestDeleteOrAbandon_NonOwnerSeesNotFound(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)

	if err := e.DeleteOrAbandon(s.ID, 2); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("non-owner delete error = %v, want ErrSessionNotFound", err)
	}
}

// ---------- cleanup ----------

func TestCleanupTokens(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	res := mustJoin(t, e, s.Code)

	// an expired token
	expired := models.SessionToken{
		ParticipantID: res.ParticipantID,
		TokenHash:     "deadbeef",
		IssuedAt:      time.Now().Add(-2 * time.Hour),
		ExpiresAt:     time.Now().Add(-time.Hour),
	}
	// a token revoked long ago
	old := time.Now().Add(-48 * time.Hour)
	revoked := models.SessionToken{
		ParticipantID: res.ParticipantID,
		TokenHash:     "cafebabe",
		IssuedAt:      old,
		ExpiresAt:     time.Now().Add(time.Hour),
		RevokedAt:     &old,
	}
	if err := e.DB.Create(&expired).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if err := e.DB.Create(&revoked).Error; err != nil {
		t.Fatalf("seed revoked: %v", err)
	}

	n, err := e.CleanupTokens(24 * time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 2 {
		t.Errorf("cleaned %d tokens, want 2", n)
	}

	// the live join token survives the sweep
	var remaining []models.SessionToken
	if err := e.DB.Find(&remaining).Error; err != nil {
		t.Fatalf("load tokens: %v", err)
	}
	if len(remaining) != 1 || remaining[0].TokenHash != token.Hash(res.RawToken) {
		t.Errorf("remaining tokens = %+v", remaining)
	}
}

// ---------- profiles ----------

func TestSubmitProfile(t *testing.T) {
	e := newTestEngine(t)
	s := mustCreate(t, e, 1, 0)
	res := mustJoin(t, e, s.Code)

	p, err := e.SubmitProfile(s.ID, res.RawToken, "draft text")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !p.Draft {
		t.Error("lobby profile should be a draft")
	}
	if p.ColorHex != "#FF0000" {
		t.Errorf("profile color = %s, want author color", p.ColorHex)
	}

	d, err := e.GetDetails(s.ID, 1, models.RoleFacilitator)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.ProfileCount != 1 {
		t.Errorf("profile count = %d, want 1", d.ProfileCount)
	}

	if _, err := e.SubmitProfile(s.ID, "garbage", "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token error = %v, want ErrInvalidToken", err)
	}
}
