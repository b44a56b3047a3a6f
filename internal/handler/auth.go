package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/gadget-registry/internal/service"
	"github.com/msomdec/gadget-registry/internal/validation"
)

// AuthHandler handles registration, sign-in and sign-out.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

// HandleRegister creates an account.
// POST /api/auth/register
// Request:  {"email":"...","password":"..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	in := Input[validation.CredentialsInput](r.Context())

	user, err := h.auth.Register(r.Context(), in.Email, in.Password)
	if err != nil {
		respondError(w, r, err, "email", in.Email)
		return
	}

	respond(w, r, http.StatusCreated, "user registered successfully", map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleSignIn verifies credentials and sets the session cookie. The token
// itself is never included in the body.
// POST /api/auth/signin
// Request:  {"email":"...","password":"..."}
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	in := Input[validation.CredentialsInput](r.Context())

	session, err := h.auth.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		respondError(w, r, err, "email", in.Email)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
	})

	respond(w, r, http.StatusOK, "signed in successfully", map[string]any{
		"user": toUserDTO(session.User),
	})
}

// HandleSignOut clears the session cookie. It does not require a session.
// POST /api/auth/signout
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	respond(w, r, http.StatusOK, "signed out successfully", nil)
}
