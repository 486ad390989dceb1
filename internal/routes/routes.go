package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crisiscare/crisiscare-backend/internal/handlers"
	"github.com/crisiscare/crisiscare-backend/internal/middleware"
)

// Deps is everything the router wires together. Nil optional fields switch
// the matching feature off.
type Deps struct {
	CommunityHelp *handlers.CommunityHelpHandler
	LiveFeed      *handlers.LiveFeedHandler // optional
	SubmitLimiter func(http.Handler) http.Handler
	Metrics       http.Handler // optional

	AllowedOrigins []string
	Production     bool
	StaticDir      string // optional
}

// NewRouter builds the chi router with the shared middleware chain.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(d.AllowedOrigins))
	if d.Production {
		r.Use(middleware.SecurityHeaders)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	SetupRoutes(r, d)
	return r
}

func SetupRoutes(r chi.Router, d Deps) {
	// Community help signups
	submit := http.Handler(http.HandlerFunc(d.CommunityHelp.SubmitCommunityHelp))
	if d.SubmitLimiter != nil {
		submit = d.SubmitLimiter(submit)
	}
	r.Method(http.MethodPost, "/api/community-help", submit)
	r.Get("/api/community-help", d.CommunityHelp.ListCommunityHelp)

	// Help map markers
	r.Get("/api/help-locations", handlers.ListHelpLocations)

	// Live feed of new entries
	if d.LiveFeed != nil {
		r.Get("/ws/community-help", d.LiveFeed.Subscribe)
	}

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	// Static site (index.html, script.js, styles)
	if d.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(d.StaticDir)))
	}
}
