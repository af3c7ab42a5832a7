package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zaqqye/seb_exam_gate/internal/config"
	"github.com/zaqqye/seb_exam_gate/internal/database"
	"github.com/zaqqye/seb_exam_gate/internal/hooks"
	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/repository"
	"github.com/zaqqye/seb_exam_gate/internal/routes"
	"github.com/zaqqye/seb_exam_gate/internal/ws"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	if err := database.SeedAdmin(db, cfg); err != nil {
		log.Fatalf("admin seed failed: %v", err)
	}

	cache, closeCache, err := database.OpenStatusCache(context.Background(), cfg)
	if err != nil {
		log.Fatalf("status cache setup failed: %v", err)
	}
	defer closeCache()
	log.Printf("status cache: %s", cfg.StatusCache)

	hubs := ws.NewHubs()
	hubs.Run()

	courses := repository.NewCourseRepository(db, cfg.StoreTimeout)
	statuses := repository.NewStatusRepository(db, cfg.StoreTimeout)
	directory := repository.NewDirectory(db, cfg.StoreTimeout)
	engine := lockdown.NewEngine(courses, lockdown.NewStatusStore(statuses, cache, hubs), directory)

	registry := hooks.NewRegistry()
	hooks.RegisterLockdown(registry, engine)

	r := gin.Default()
	routes.Register(r, db, cfg, routes.Deps{
		Engine:    engine,
		Hooks:     registry,
		Directory: directory,
		Hubs:      hubs,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Println("server exited with error:", err)
		os.Exit(1)
	}
}
