package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/FinVerify/FV-Backend/internal/auth"
	"github.com/FinVerify/FV-Backend/internal/db"
	"github.com/FinVerify/FV-Backend/internal/geoip"
	"github.com/FinVerify/FV-Backend/internal/mailer"
	"github.com/FinVerify/FV-Backend/internal/metrics"
	"github.com/FinVerify/FV-Backend/internal/middleware"
	"github.com/FinVerify/FV-Backend/internal/otp"
	"github.com/FinVerify/FV-Backend/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

const tokenTTL = 2 * time.Hour

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	auth.Init()

	sink := mailer.NewSMTP(
		os.Getenv("SMTP_HOST"),
		os.Getenv("SMTP_PORT"),
		os.Getenv("EMAIL_USER"),
		os.Getenv("EMAIL_PASS"),
	)

	reg := prometheus.NewRegistry()

	h := &auth.Handler{
		OTP:        otp.NewIssuer(otp.NewStore(), sink),
		Tokens:     token.NewManager([]byte(secret), tokenTTL),
		Audit:      auth.NewRecorder(geoip.NewClient()),
		Metrics:    metrics.NewCollector(reg),
		AdminEmail: strings.ToLower(os.Getenv("ADMIN_EMAIL")),
	}

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)
	r.Get("/healthz", RootHandler)
	r.Handle("/metrics", metrics.Handler(reg))

	r.Mount("/api", auth.SetupRoutes(h))

	log.Printf("Server listening on port :%s...", port)
	if err := http.ListenAndServe("0.0.0.0:"+port, r); err != nil {
		log.Fatal(err)
	}
}
