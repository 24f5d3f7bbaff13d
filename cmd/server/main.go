package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/avilchesf/gestor-gastos/internal/config"
	"github.com/avilchesf/gestor-gastos/internal/database"
	"github.com/avilchesf/gestor-gastos/internal/handler"
	"github.com/avilchesf/gestor-gastos/internal/middleware"
	"github.com/avilchesf/gestor-gastos/internal/queue"
	"github.com/avilchesf/gestor-gastos/internal/repository"
	"github.com/avilchesf/gestor-gastos/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	users := repository.NewUserRepo(db)
	managers := repository.NewManagerRepo(db)
	months := repository.NewMonthRepo(db)
	incomes := repository.NewIncomeRepo(db)
	expenses := repository.NewExpenseRepo(db)
	access := repository.NewAccessRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users)
	ledgerHandler := handler.NewLedgerHandler(managers, months, incomes, expenses, access)

	e := echo.New()
	e.HideBanner = true

	// Rate limiting degrades to a no-op when Redis is unavailable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterLedger(e, ledgerHandler, cfg.JWTSecret)

	// Month-closed events land in logs/ledger.log; the consumer reconnects
	// on broker failures without taking the server down.
	go func() {
		if err := queue.StartMonthClosedConsumer(); err != nil {
			log.Printf("month-closed consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
