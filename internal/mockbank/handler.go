package mockbank

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/ctxlog"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/httputil"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler serves /auth/login and /auth/register with the banking API wire format:
// flat JSON bodies and {"message": ...} errors.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new mockbank handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validate.New(),
	}
}

// RegisterRoutes registers the auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
	})
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents registration request body.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,intlphone"`
}

// AuthResponse is the success body of both endpoints.
type AuthResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondAuth(w, result)
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Register(r.Context(), RegisterInput(req))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondAuth(w, result)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondMessage(w, http.StatusBadRequest, "invalid "+verrs[0].Field())
			return false
		}
		respondMessage(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

func (h *Handler) respondAuth(w http.ResponseWriter, result *AuthResult) {
	httputil.JSON(w, http.StatusOK, AuthResponse{
		Token:    result.Token,
		UserID:   result.Account.ID,
		Username: result.Account.Username,
		Email:    result.Account.Email,
		Role:     string(result.Account.Role),
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		respondMessage(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, ErrUsernameExists):
		respondMessage(w, http.StatusConflict, "Username is already taken")
	case errors.Is(err, ErrEmailExists):
		respondMessage(w, http.StatusConflict, "Email is already registered")
	default:
		ctxlog.FromContext(r.Context()).Error("internal error", "error", err)
		respondMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	httputil.JSON(w, status, map[string]string{"message": message})
}
