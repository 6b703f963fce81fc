package main

import (
	"net/http"
	"os"
	"strconv"

	"scrapbid/db"
	"scrapbid/db/migrations"
	"scrapbid/internal/bids"
	"scrapbid/internal/handlers"
	"scrapbid/internal/notify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	// .env для локальной разработки; в проде переменные приходят из окружения
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	connString := os.Getenv("POSTGRES_CONN")
	if connString == "" {
		logger.Fatal("POSTGRES_CONN env variable is not set")
	}

	dbConn, err := sqlx.Connect("postgres", connString)
	if err != nil {
		logger.Fatal("cannot connect to DB", zap.Error(err))
	}
	defer dbConn.Close()

	migrations.Run()

	store := db.NewStorage(dbConn)
	mailer := notify.NewMailer(
		getenv("SMTP_HOST", "localhost"),
		getenvInt("SMTP_PORT", 1025),
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASS"),
		getenv("SMTP_FROM", "no-reply@scrapbid.local"),
	)
	svc := bids.NewService(store, store, mailer, logger)
	h := handlers.NewHandler(store, svc, mailer)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		// лоты (каталог)
		r.Get("/listings", h.GetListingsHandler)
		r.Post("/listings/new", h.CreateListingHandler)
		r.Get("/listings/{listingId}", h.GetListingHandler)
		r.Patch("/listings/{listingId}/edit", h.EditListingHandler)
		r.Get("/listings/{listingId}/bids", h.GetListingBidsHandler)
		// предложения (bids)
		r.Post("/bids/new", h.SubmitBidHandler)
		r.Post("/bids/{bidId}/verify", h.VerifyBidHandler)
		r.Put("/bids/{bidId}/approve", h.ApproveBidHandler)
		r.Put("/bids/{bidId}/reject", h.RejectBidHandler)
		r.Post("/bid-status", h.BidStatusHandler)
		// подтверждение e-mail
		r.Post("/email/send-otp", h.SendEmailOTPHandler)
		r.Post("/email/verify-otp", h.VerifyEmailOTPHandler)
	})

	serverAddr := getenv("SERVER_ADDRESS", "0.0.0.0:8080")

	logger.Info("starting server", zap.String("addr", serverAddr))
	if err := http.ListenAndServe(serverAddr, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
