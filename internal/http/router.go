package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/bookxchange/internal/auth"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/account"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/admin"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/book"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/dashboard"
	"github.com/MrJamesThe3rd/bookxchange/internal/http/request"
	"github.com/MrJamesThe3rd/bookxchange/internal/metrics"
)

type Handlers struct {
	Accounts  *account.Handler
	Books     *book.Handler
	Requests  *request.Handler
	Dashboard *dashboard.Handler
	Admin     *admin.Handler
}

type Options struct {
	JWTSecret      []byte
	JWTIssuer      string
	AllowedOrigins []string
	Admins         auth.AdminChecker
	Metrics        *metrics.Metrics
}

func New(h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(opts.Metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", opts.Metrics.Handler())

	authenticate := auth.Middleware(opts.JWTSecret, opts.JWTIssuer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			h.Books.PublicRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				h.Books.Routes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/accounts", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Accounts.Routes(r)
			})

			r.Route("/requests", h.Requests.Routes)
			r.Route("/me", h.Dashboard.Routes)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin(opts.Admins))
				h.Admin.Routes(r)
			})
		})
	})

	return router
}
