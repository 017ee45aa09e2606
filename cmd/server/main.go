package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/library-lending/internal/auth"
	"github.com/iliyamo/library-lending/internal/catalog"
	"github.com/iliyamo/library-lending/internal/config"
	"github.com/iliyamo/library-lending/internal/database"
	"github.com/iliyamo/library-lending/internal/handler"
	"github.com/iliyamo/library-lending/internal/middleware"
	"github.com/iliyamo/library-lending/internal/queue"
	"github.com/iliyamo/library-lending/internal/repository"
	"github.com/iliyamo/library-lending/internal/router"
)

func main() {
	// Load .env when present; real deployments set the variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("database: schema: %v", err)
	}

	verifier := auth.Init(context.Background(), cfg.FirebaseCredentials)
	cat := catalog.New(cfg.GoogleBooksAPIURL, cfg.GoogleBooksAPIKey)

	books := repository.NewBookRepo(db)
	users := repository.NewUserRepo(db)
	loans := repository.NewLoanRepo(db)
	wishlist := repository.NewWishlistRepo(db)

	bookHandler := handler.NewBookHandler(cat, books)
	loanHandler := handler.NewLoanHandler(loans, books, users, wishlist)
	wishlistHandler := handler.NewWishlistHandler(wishlist, users, books)
	userHandler := handler.NewUserHandler(users, loans, wishlist)
	adminHandler := handler.NewAdminHandler(loans, users, cat, loanHandler)

	// The availability consumer runs for the life of the process and
	// reconnects on its own; it never brings the API down.
	go func() {
		if err := queue.StartAvailabilityConsumer(); err != nil {
			log.Printf("availability-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient()))

	router.RegisterPublic(e, bookHandler)
	router.RegisterUser(e, verifier, loanHandler, wishlistHandler, userHandler)
	router.RegisterAdmin(e, verifier, users, adminHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
