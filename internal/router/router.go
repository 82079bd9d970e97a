package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"deckiq-backend/internal/handlers"
	"deckiq-backend/internal/middleware"
)

func New(
	deckHandler *handlers.DeckHandler,
	createHandler *handlers.CreateHandler,
	studyHandler *handlers.StudyHandler,
	dashboardHandler *handlers.DashboardHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Generation rate limiter (10 req/min per IP); these routes call the AI
	// provider.
	generateLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Deck Routes ────
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckHandler.ListDecks)
			r.Post("/", createHandler.CreateManual)

			r.Group(func(r chi.Router) {
				r.Use(generateLimiter.Middleware)
				r.Post("/generate", createHandler.Generate)
				r.Post("/from-text", createHandler.FromText)
				r.Post("/from-youtube", createHandler.FromYouTube)
				r.Post("/upload", createHandler.Upload)
			})

			r.Route("/{deckId}", func(r chi.Router) {
				r.Get("/", deckHandler.GetDeck)
				r.Put("/", deckHandler.UpdateDeck)
				r.Delete("/", deckHandler.DeleteDeck)
				r.Patch("/cards/{cardId}", deckHandler.UpdateCard)
			})
		})

		// ──── Study Session Routes ────
		r.Route("/study", func(r chi.Router) {
			r.Post("/start", studyHandler.Start)
			r.Get("/{sessionId}", studyHandler.Get)
			r.Post("/{sessionId}/{action}", studyHandler.Action)
			r.Delete("/{sessionId}", studyHandler.End)
		})

		// ──── Dashboard Routes ────
		r.Get("/dashboard/stats", dashboardHandler.Stats)
		r.Get("/results", dashboardHandler.Results)
	})

	return r
}
