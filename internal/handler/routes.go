package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/msomdec/gadget-registry/internal/service"
	"github.com/msomdec/gadget-registry/internal/validation"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth      *service.AuthService
	Gadgets   *service.GadgetService
	Tokens    TokenVerifier
	Validator *validation.Validator
	DB        Pinger
	Logger    *slog.Logger
	// SignInLimiter throttles register and sign-in per client IP. Optional.
	SignInLimiter *service.TokenBucket
	CookieSecure  bool
}

// NewRouter builds the HTTP handler for the whole API.
//
// Per route the order is: validation of every input region, then the
// authentication gate (gadget routes only), then the handler.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Validator == nil {
		d.Validator = validation.New()
	}

	authH := NewAuthHandler(d.Auth, d.CookieSecure)
	gadgetH := NewGadgetHandler(d.Gadgets)
	v := d.Validator
	requireAuth := RequireAuth(d.Tokens)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger))
	r.Use(Recoverer)
	r.Use(SecurityHeaders)
	r.Use(LimitBody)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, envelope{Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusMethodNotAllowed, envelope{Message: "method not allowed"})
	})

	r.Get("/healthz", HandleHealthz)
	if d.DB != nil {
		r.Get("/readyz", HandleReadyz(d.DB))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			credentials := Body[validation.CredentialsInput](v)
			r.With(RateLimit(d.SignInLimiter), credentials).Post("/register", authH.HandleRegister)
			r.With(RateLimit(d.SignInLimiter), credentials).Post("/signin", authH.HandleSignIn)
			r.Post("/signout", authH.HandleSignOut)
		})

		r.Route("/gadgets", func(r chi.Router) {
			id := Params[validation.IDParams](v)

			r.With(Query[validation.ListGadgetsQuery](v), requireAuth).Get("/", gadgetH.HandleList)
			r.With(Body[validation.CreateGadgetInput](v), requireAuth).Post("/", gadgetH.HandleCreate)
			r.With(id, requireAuth).Get("/{id}", gadgetH.HandleGet)
			r.With(id, Body[validation.UpdateGadgetInput](v), requireAuth).Patch("/{id}", gadgetH.HandleUpdate)
			r.With(id, requireAuth).Delete("/{id}", gadgetH.HandleDecommission)
			r.With(id, requireAuth).Post("/{id}/self-destruct", gadgetH.HandleSelfDestruct)
		})
	})

	return r
}
