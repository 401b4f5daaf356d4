package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aalbusoiu/workshop-platform/internal/config"
	"github.com/aalbusoiu/workshop-platform/internal/database"
	"github.com/aalbusoiu/workshop-platform/internal/router"
	"github.com/aalbusoiu/workshop-platform/internal/session"
	"github.com/aalbusoiu/workshop-platform/internal/token"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// participant credential issuer: missing secret or TTL is fatal
	issuer, err := token.NewIssuer(cfg.Session.TokenSecret, cfg.Session.TokenTTLMinutes)
	if err != nil {
		log.Fatalf("session token config: %v", err)
	}

	engine := session.NewEngine(db, issuer,
		cfg.Session.CodeLength,
		cfg.Session.DefaultParticipants,
		cfg.Session.MaxParticipants,
	)

	// periodic expired-token sweep
	go func() {
		interval := time.Duration(cfg.Cleanup.IntervalMinutes) * time.Minute
		grace := time.Duration(cfg.Cleanup.RevokedGraceHours) * time.Hour
		for range time.Tick(interval) {
			n, err := engine.CleanupTokens(grace)
			if err != nil {
				log.Printf("token cleanup: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("token cleanup removed %d rows", n)
			}
		}
	}()

	// setup router
	r := router.SetupRouter(cfg, db, engine)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
