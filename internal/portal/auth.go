package portal

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/IbrahimJenberu/smart-banking-system/internal/authapi"
	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"github.com/IbrahimJenberu/smart-banking-system/internal/gate"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/ctxlog"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/httputil"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/validate"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/go-playground/validator/v10"
)

const maxFormBytes = 64 << 10

// LoginForm is the body of POST /login.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	From     string `json:"from"`
}

// RegisterForm is the body of POST /register.
type RegisterForm struct {
	Username        string `json:"username" validate:"required,min=3"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	PhoneNumber     string `json:"phoneNumber" validate:"omitempty,intlphone"`
}

var fieldMessages = map[string]map[string]string{
	"username": {
		"required": "Username is required",
		"min":      "Username must be at least 3 characters",
	},
	"email": {
		"required": "Email is required",
		"email":    "Email is invalid",
	},
	"password": {
		"required":           "Password is required",
		"min":                "Password must be at least 8 characters",
		validate.TagPassword: "Password must contain at least one digit, lowercase, uppercase, and special character",
	},
	"confirmPassword": {
		"eqfield": "Passwords do not match",
	},
	"firstName": {
		"required": "First name is required",
	},
	"lastName": {
		"required": "Last name is required",
	},
	"phoneNumber": {
		validate.TagPhone: "Phone number must be in international format (e.g., +1234567890)",
	},
}

func describeField(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()][fe.Tag()]; ok {
		return msg
	}
	return fe.Tag()
}

// authErrorMappings covers the errors that are not an *session.AuthError.
var authErrorMappings = []httputil.ErrorMapping{
	{Error: session.ErrAlreadyInProgress, Status: http.StatusConflict, Message: "A sign-in is already in progress."},
	{Error: session.ErrSuperseded, Status: http.StatusConflict, Message: "The session changed while signing in. Please try again."},
	{Error: session.ErrPersist, Status: http.StatusInternalServerError, Message: "Your session could not be saved. Please try again."},
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.sessions.State().Authenticated(); ok {
		http.Redirect(w, r, sess.User.Role.LandingPage(), http.StatusFound)
		return
	}

	q := r.URL.Query()
	page := Page{Page: "login", Title: "Sign In", ReturnTo: localPath(q.Get(gate.ReturnParam))}
	if q.Get("expired") == "true" {
		page.Notice = expiredNotice
	}
	httputil.JSON(w, http.StatusOK, page)
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.sessions.State().Authenticated(); ok {
		http.Redirect(w, r, sess.User.Role.LandingPage(), http.StatusFound)
		return
	}
	httputil.JSON(w, http.StatusOK, Page{Page: "register", Title: "Create Account"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var form LoginForm
	if err := decodeForm(w, r, &form, func(v url.Values) {
		form = LoginForm{
			Username: v.Get("username"),
			Password: v.Get("password"),
			From:     v.Get(gate.ReturnParam),
		}
	}); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if form.From == "" {
		form.From = r.URL.Query().Get(gate.ReturnParam)
	}

	if err := h.validator.Struct(form); err != nil {
		httputil.ValidationErrorMessages(w, err, describeField)
		return
	}

	role, err := h.sessions.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		h.respondAuthError(w, r, "login", err)
		return
	}

	http.Redirect(w, r, afterLogin(form.From, role), http.StatusSeeOther)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var form RegisterForm
	if err := decodeForm(w, r, &form, func(v url.Values) {
		form = RegisterForm{
			Username:        v.Get("username"),
			Email:           v.Get("email"),
			Password:        v.Get("password"),
			ConfirmPassword: v.Get("confirmPassword"),
			FirstName:       v.Get("firstName"),
			LastName:        v.Get("lastName"),
			PhoneNumber:     v.Get("phoneNumber"),
		}
	}); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		httputil.ValidationErrorMessages(w, err, describeField)
		return
	}

	role, err := h.sessions.Register(r.Context(), authapi.RegisterRequest{
		Username:    form.Username,
		Email:       form.Email,
		Password:    form.Password,
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		PhoneNumber: form.PhoneNumber,
	})
	if err != nil {
		h.respondAuthError(w, r, "register", err)
		return
	}

	http.Redirect(w, r, role.LandingPage(), http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		// The session is gone from memory either way.
		ctxlog.FromContext(r.Context()).Warn("logout did not clear the session store", "error", err)
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

func (h *Handler) respondAuthError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := ctxlog.With(r.Context(), "op", op)

	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		status := http.StatusUnauthorized
		if errors.Is(authErr, session.ErrNetwork) {
			status = http.StatusBadGateway
			ctxlog.FromContext(ctx).Warn("banking api unavailable", "error", err)
		}
		httputil.Error(w, status, authErr.Message)
		return
	}
	httputil.HandleError(ctx, w, err, authErrorMappings)
}

// decodeForm reads a JSON body into dst, or hands a urlencoded body
// to fromValues.
func decodeForm(w http.ResponseWriter, r *http.Request, dst any, fromValues func(url.Values)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return json.NewDecoder(r.Body).Decode(dst)
	}

	if err := r.ParseForm(); err != nil {
		return err
	}
	fromValues(r.PostForm)
	return nil
}

// afterLogin picks the post-login destination: the recorded return path when it
// is a local path other than login itself, otherwise the role's landing page.
func afterLogin(from string, role domain.Role) string {
	if p := localPath(from); p != "" {
		return p
	}
	return role.LandingPage()
}

// localPath returns p if it is a same-origin absolute path, or "".
func localPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, `/\`) {
		return ""
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	if u.Path == LoginPath || u.Path == "/register" {
		return ""
	}
	return p
}
