package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/suar-net/suar-api/internal/service"
)

// MaxBodyBytes caps inbound request bodies.
const MaxBodyBytes = 10 << 20

// Dependencies groups what the router hands to its handlers.
type Dependencies struct {
	Executor       service.IExecutorService
	History        service.IHistoryService
	DB             *gorm.DB
	Logger         *logrus.Logger
	AllowedOrigins []string
}

// SetupRouter creates the main Chi router for the application.
func SetupRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  deps.Logger,
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.RequestSize(MaxBodyBytes))

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browser
	}))

	requestHandler := NewRequestHandler(deps.Executor, deps.Logger)
	historyHandler := NewHistoryHandler(deps.History, deps.Logger)
	healthHandler := NewHealthHandler(deps.DB, deps.Logger)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/requests", func(r chi.Router) {
		r.Post("/execute", requestHandler.Execute)

		r.Get("/history", historyHandler.List)
		r.Get("/history/{id}", historyHandler.Get)
		r.Patch("/history/{id}", historyHandler.Update)
		r.Delete("/history/{id}", historyHandler.Delete)

		r.Get("/collections", historyHandler.Collections)
		r.Get("/collections/{collection}", historyHandler.ByCollection)
		r.Get("/favorites", historyHandler.Favorites)
		r.Get("/search", historyHandler.Search)
		r.Get("/stats", historyHandler.Stats)
		r.Get("/export", historyHandler.Export)

		r.Post("/bulk/delete", historyHandler.BulkDelete)
		r.Post("/bulk/favorite", historyHandler.BulkFavorite)
	})

	r.NotFound(routeNotFound)

	return r
}

type routeNotFoundResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	respondWithJson(w, http.StatusNotFound, routeNotFoundResponse{
		Error:   "Route not found",
		Message: fmt.Sprintf("The route %s does not exist", r.URL.RequestURI()),
	})
}
