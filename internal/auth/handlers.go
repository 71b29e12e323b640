package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/FinVerify/FV-Backend/internal/db"
	"github.com/FinVerify/FV-Backend/internal/metrics"
	"github.com/FinVerify/FV-Backend/internal/otp"
	"github.com/FinVerify/FV-Backend/internal/token"
	"github.com/FinVerify/FV-Backend/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/secure/precis"
	"gorm.io/gorm"
)

// Handler carries the auth flows' dependencies. The designated admin email
// is injected here at startup instead of being compared inline.
type Handler struct {
	Directory  AccountDirectory
	OTP        *otp.Issuer
	Tokens     *token.Manager
	Audit      *Recorder
	Metrics    *metrics.Collector
	AdminEmail string
}

type signupData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	DOB      string `json:"dob"`
}

type behaviorData struct {
	TypingDelays    []float64 `json:"typingDelays"`
	FieldFocusOrder []string  `json:"fieldFocusOrder"`
	MouseMoves      int       `json:"mouseMoves"`
}

type signupRequest struct {
	SignupData   signupData   `json:"signupData"`
	BehaviorData behaviorData `json:"behaviorData"`
}

// accountSummary is the minimal profile returned alongside a token.
type accountSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func summarize(account *Account) accountSummary {
	return accountSummary{ID: account.ID, Email: account.Email, Username: account.Username}
}

// normalizeUsername canonicalizes a username so case-variants of the same
// name collide on the unique index instead of creating lookalike accounts.
func normalizeUsername(username string) (string, error) {
	return precis.UsernameCaseMapped.String(username)
}

// normalizeIdentifier maps a login identifier to the stored form: emails
// are trimmed and lowercased, usernames go through the same precis profile
// applied at signup. Input the profile rejects is returned as typed and
// simply fails to match any account.
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	if normalized, err := normalizeUsername(identifier); err == nil {
		return normalized
	}
	return identifier
}

// clientIP extracts the originating client address, preferring proxy
// headers over the raw socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.Index(xff, ","); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	data := req.SignupData
	if data.Username == "" || data.Email == "" || data.Password == "" {
		utils.JSONError(w, "Username, email and password are required", http.StatusBadRequest)
		return
	}

	username, err := normalizeUsername(data.Username)
	if err != nil {
		utils.JSONError(w, "Invalid username", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(data.Email))

	role := "user"
	if h.AdminEmail != "" && email == h.AdminEmail {
		role = "admin"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("signup: hashing password: %v", err)
		utils.JSONError(w, "Signup failed", http.StatusInternalServerError)
		return
	}

	account := Account{
		ID:              uuid.NewString(),
		Username:        username,
		Email:           email,
		FullName:        data.FullName,
		DOB:             data.DOB,
		HashedPassword:  string(hashed),
		Role:            role,
		TypingDelays:    req.BehaviorData.TypingDelays,
		FieldFocusOrder: req.BehaviorData.FieldFocusOrder,
		MouseMoves:      req.BehaviorData.MouseMoves,
	}

	if err := h.Directory.Create(&account); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			utils.JSONError(w, "Username or email already in use", http.StatusBadRequest)
			return
		}
		log.Printf("signup: creating account: %v", err)
		utils.JSONError(w, "Signup failed", http.StatusInternalServerError)
		return
	}

	h.Metrics.RecordSignup()
	utils.JSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// verifyCredentials resolves the identifier (email or username) and checks
// the password. It writes the failure response itself and returns nil when
// the caller should stop.
func (h *Handler) verifyCredentials(w http.ResponseWriter, r *http.Request) *Account {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request format", http.StatusBadRequest)
		return nil
	}

	identifier := normalizeIdentifier(req.Email)
	account, err := h.Directory.FindByEmailOrUsername(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.Metrics.RecordLogin(metrics.LoginNotFound)
			utils.JSONError(w, "User not found", http.StatusNotFound)
			return nil
		}
		log.Printf("login: looking up %q: %v", identifier, err)
		h.Metrics.RecordLogin(metrics.LoginError)
		utils.JSONError(w, "Server error during login", http.StatusInternalServerError)
		return nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.HashedPassword), []byte(req.Password)); err != nil {
		h.Metrics.RecordLogin(metrics.LoginBadPassword)
		utils.JSONError(w, "Invalid password", http.StatusUnauthorized)
		return nil
	}

	return account
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	account := h.verifyCredentials(w, r)
	if account == nil {
		return
	}

	tokenStr, err := h.Tokens.Issue(account.ID, account.Email, account.Username, account.Role)
	if err != nil {
		log.Printf("login: issuing token: %v", err)
		h.Metrics.RecordLogin(metrics.LoginError)
		utils.JSONError(w, "Server error during login", http.StatusInternalServerError)
		return
	}

	h.Audit.Record(account, tokenStr, clientIP(r))
	h.Metrics.RecordLogin(metrics.LoginSuccess)

	utils.JSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   tokenStr,
		"user":    summarize(account),
	})
}

func (h *Handler) LoginCheckHandler(w http.ResponseWriter, r *http.Request) {
	account := h.verifyCredentials(w, r)
	if account == nil {
		return
	}

	if err := h.OTP.Issue(r.Context(), account.Email); err != nil {
		log.Printf("login-check: issuing otp for %s: %v", account.Email, err)
		utils.JSONError(w, "Login check error", http.StatusInternalServerError)
		return
	}
	h.Metrics.RecordOTPIssued()

	utils.JSON(w, http.StatusOK, map[string]string{
		"message":       "OTP sent after credentials verified",
		"verifiedEmail": account.Email,
	})
}

func (h *Handler) SendOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		utils.JSONError(w, "Email is required", http.StatusBadRequest)
		return
	}

	// Key the store by the stored form so verify-otp agrees regardless of
	// how the caller cased the address.
	email := normalizeIdentifier(req.Email)
	if err := h.OTP.Issue(r.Context(), email); err != nil {
		log.Printf("send-otp: issuing otp for %s: %v", email, err)
		utils.JSONError(w, "OTP send failed", http.StatusInternalServerError)
		return
	}
	h.Metrics.RecordOTPIssued()

	utils.JSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (h *Handler) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	email := normalizeIdentifier(req.Email)
	if !h.OTP.Verify(email, req.OTP) {
		h.Metrics.RecordOTPVerified(false)
		utils.JSONError(w, "Invalid or expired OTP", http.StatusBadRequest)
		return
	}
	h.Metrics.RecordOTPVerified(true)

	response := map[string]any{"message": "OTP verified"}

	account, err := h.Directory.FindByEmailOrUsername(email)
	switch {
	case err == nil:
		tokenStr, err := h.Tokens.Issue(account.ID, account.Email, account.Username, account.Role)
		if err != nil {
			log.Printf("verify-otp: issuing token: %v", err)
			utils.JSONError(w, "Server error during login", http.StatusInternalServerError)
			return
		}
		h.Audit.Record(account, tokenStr, clientIP(r))
		response["token"] = tokenStr
		response["user"] = summarize(account)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Codes can be issued for addresses without an account (send-otp);
		// the verification stands on its own, just without a session token.
	default:
		log.Printf("verify-otp: looking up %q: %v", email, err)
		utils.JSONError(w, "Server error during login", http.StatusInternalServerError)
		return
	}

	utils.JSON(w, http.StatusOK, response)
}

func (h *Handler) UserProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := utils.GetClaimsFromContext(r.Context())
	if !ok {
		utils.JSONError(w, "Unauthorized: missing claims in context", http.StatusUnauthorized)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"message": "Protected profile access granted",
		"user":    claims,
	})
}

func (h *Handler) AdminLoginsHandler(w http.ResponseWriter, r *http.Request) {
	var logs []LoginLog
	if err := db.DB.Order("timestamp desc").Find(&logs).Error; err != nil {
		log.Printf("admin/logins: fetching login logs: %v", err)
		utils.JSONError(w, "Server error fetching login logs", http.StatusInternalServerError)
		return
	}

	utils.JSON(w, http.StatusOK, logs)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterHandler creates a directory-only account: no credential is set,
// so the account cannot log in until one is.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Email == "" {
		utils.JSONError(w, "Username and email are required", http.StatusBadRequest)
		return
	}

	username, err := normalizeUsername(req.Username)
	if err != nil {
		utils.JSONError(w, "Invalid username", http.StatusBadRequest)
		return
	}

	account := Account{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		DeviceList: []string{},
	}

	if err := h.Directory.Create(&account); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			utils.JSONError(w, "Username already exists", http.StatusBadRequest)
			return
		}
		log.Printf("register: creating account: %v", err)
		utils.JSONError(w, "Server error", http.StatusInternalServerError)
		return
	}

	utils.JSON(w, http.StatusCreated, map[string]string{"msg": "User registered successfully"})
}
