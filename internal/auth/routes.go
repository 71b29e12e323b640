package auth

import (
	"net/http"

	"github.com/FinVerify/FV-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/signup", h.SignupHandler)
	r.Post("/login", h.LoginHandler)
	r.Post("/login-check", h.LoginCheckHandler)
	r.Post("/send-otp", h.SendOTPHandler)
	r.Post("/verify-otp", h.VerifyOTPHandler)
	r.Post("/register", h.RegisterHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.Tokens))
		r.Get("/user-profile", h.UserProfileHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Admin)
			r.Get("/admin/logins", h.AdminLoginsHandler)
		})
	})

	return r
}
