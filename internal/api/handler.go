package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"pharmawarehouse/m/domain"
	"pharmawarehouse/m/internal/warehouse"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxRole   ctxKey = "role"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db        *sqlx.DB
	warehouse *warehouse.Service
	secret    string
}

// New constructs a Handler.
func New(db *sqlx.DB, svc *warehouse.Service, secret string) *Handler {
	return &Handler{db: db, warehouse: svc, secret: secret}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/warehouse", func(r chi.Router) {
			r.Get("/", h.listDrugs)
			r.Get("/all", h.listAllDrugs)
			r.Post("/", h.createDrug)
			r.Get("/{id}", h.getDrug)
			r.Post("/category", h.createCategory)
			r.Get("/transfer", h.getTransfers)
			r.Post("/transfer", h.createTransfer)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID int64, role string) (string, error) {
	claims := authClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	role := r.Context().Value(ctxRole)
	if role == nil {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	current := role.(string)
	for _, allowedRole := range allowed {
		if current == allowedRole {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "insufficient permissions")
	return false
}

// Auth Handlers

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		respondError(w, http.StatusBadRequest, "username, email, password and role are required")
		return
	}

	if req.Role != "admin" && req.Role != "staff" {
		respondError(w, http.StatusBadRequest, "role must be admin or staff")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	res, err := h.db.Exec(`INSERT INTO users (username, email, password, role) VALUES (?, ?, ?, ?)`,
		req.Username, strings.ToLower(req.Email), hashed, req.Role)
	if err != nil {
		respondError(w, http.StatusConflict, "email already exists")
		return
	}
	userID, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to complete registration")
		return
	}

	token, err := h.generateToken(userID, req.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: domain.User{ID: int(userID), Username: req.Username, Email: strings.ToLower(req.Email), Role: req.Role}})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var user domain.User
	err := h.db.Get(&user, `SELECT id, username, email, password, role FROM users WHERE email = ?`, strings.ToLower(req.Email))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(int64(user.ID), user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	user.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	uid := r.Context().Value(ctxUserID).(int64)
	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}
	if _, err := h.db.Exec(`UPDATE users SET password = ? WHERE id = ?`, hashed, uid); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// Warehouse handlers

func (h *Handler) listDrugs(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	result, err := h.warehouse.ListDrugs(r.Context(), page, limit)
	if err != nil {
		h.respondServiceError(w, err, "unable to list drugs")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) listAllDrugs(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.warehouse.ListAllDrugs(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "unable to list drugs")
		return
	}
	respondJSON(w, http.StatusOK, drugs)
}

func (h *Handler) getDrug(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid drug id")
		return
	}
	drug, err := h.warehouse.GetDrug(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "unable to fetch drug")
		return
	}
	respondJSON(w, http.StatusOK, drug)
}

func (h *Handler) createDrug(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin", "staff") {
		return
	}
	var input warehouse.CreateDrugInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	drug, err := h.warehouse.CreateDrug(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, err, "unable to create drug")
		return
	}
	respondJSON(w, http.StatusCreated, drug)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin") {
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.warehouse.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.respondServiceError(w, err, "unable to create category")
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

type transferRequest struct {
	Type     domain.TransferType `json:"type"`
	DrugID   int64               `json:"drug_id"`
	Quantity int64               `json:"quantity"`
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "admin", "staff") {
		return
	}
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	transfer, err := h.warehouse.CreateTransfer(r.Context(), req.Type, req.DrugID, req.Quantity)
	if err != nil {
		h.respondServiceError(w, err, "unable to create transfer")
		return
	}
	respondJSON(w, http.StatusCreated, transfer)
}

func (h *Handler) getTransfers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	var drugIDs []int64
	for _, raw := range r.URL.Query()["drugIds"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid drug id in drugIds")
				return
			}
			drugIDs = append(drugIDs, id)
		}
	}

	from, err := queryMillis(r, "from")
	if err != nil {
		respondError(w, http.StatusBadRequest, "from must be epoch milliseconds")
		return
	}
	to, err := queryMillis(r, "to")
	if err != nil {
		respondError(w, http.StatusBadRequest, "to must be epoch milliseconds")
		return
	}

	result, err := h.warehouse.GetTransfers(r.Context(), page, limit, drugIDs, from, to)
	if err != nil {
		h.respondServiceError(w, err, "unable to list transfers")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Helpers

// violationReport mirrors the error body shape consumed by the clients:
// a human message, the HTTP status and per-field violations.
type violationReport struct {
	Error      string             `json:"error"`
	Status     int                `json:"status"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var svcErr *warehouse.Error
	if !errors.As(err, &svcErr) {
		respondError(w, http.StatusInternalServerError, fallback)
		return
	}
	status := statusForKind(svcErr.Kind)
	respondJSON(w, status, violationReport{Error: svcErr.Message, Status: status, Violations: svcErr.Violations})
}

func statusForKind(kind warehouse.Kind) int {
	switch kind {
	case warehouse.KindNotFound:
		return http.StatusNotFound
	case warehouse.KindDuplicate, warehouse.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryMillis(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	t := time.UnixMilli(millis).UTC()
	return &t, nil
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
