package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/catalog"
	apperrors "github.com/animeverse/animeverse/internal/errors"
)

// APIVersion is reported by /api/health.
const APIVersion = "3.0.0"

// maxBodyBytes bounds watchlist request bodies.
const maxBodyBytes = 64 << 10

// Watchlist is the subset of the watchlist service the API exposes.
type Watchlist interface {
	List(ctx context.Context) ([]core.WatchlistEntry, error)
	Add(ctx context.Context, entry core.WatchlistEntry) (core.WatchlistEntry, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// API serves the /api routes over a catalog and a watchlist.
type API struct {
	Catalog   core.Catalog
	Watchlist Watchlist
	Clock     func() time.Time
}

// Routes mounts the API handlers on r.
func (a *API) Routes(r chi.Router) {
	r.Get("/search", a.Search)
	r.Get("/trending", a.Trending)
	r.Get("/recent", a.Recent)
	r.Get("/anime/{provider}/{id}", a.Info)
	r.Get("/watch/{provider}/{episodeID}", a.Watch)
	r.Get("/watchlist", a.ListWatchlist)
	r.Post("/watchlist", a.AddWatchlist)
	r.Delete("/watchlist/{id}", a.RemoveWatchlist)
	r.Get("/health", a.Health)
}

// Search handles GET /api/search?q=.
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	result, err := a.Catalog.Search(r.Context(), query)
	if err != nil {
		if stderrors.Is(err, core.ErrInvalidQuery) {
			respondWithError(w, r, apperrors.NewInvalidInputError("Query must be at least 2 characters"))
			return
		}
		respondWithError(w, r, apperrors.FromCatalogError(r.Context(), err, "Search failed"))
		return
	}
	writeJSON(w, http.StatusOK, catalog.ToAPIList(query, result.Results))
}

// Trending handles GET /api/trending.
func (a *API) Trending(w http.ResponseWriter, r *http.Request) {
	items, err := a.Catalog.Trending(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.FromCatalogError(r.Context(), err, "Failed to fetch trending anime"))
		return
	}
	writeJSON(w, http.StatusOK, catalog.ToAPIList("", items))
}

// Recent handles GET /api/recent.
func (a *API) Recent(w http.ResponseWriter, r *http.Request) {
	items, err := a.Catalog.Recent(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.FromCatalogError(r.Context(), err, "Failed to fetch recent episodes"))
		return
	}
	writeJSON(w, http.StatusOK, catalog.ToAPIList("", items))
}

// Info handles GET /api/anime/{provider}/{id}.
func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	detail, err := a.Catalog.Info(r.Context(), chi.URLParam(r, "provider"), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, apperrors.FromCatalogError(r.Context(), err, "Anime not found"))
		return
	}
	writeJSON(w, http.StatusOK, catalog.ToAPIDetail(detail))
}

// Watch handles GET /api/watch/{provider}/{episodeID}.
func (a *API) Watch(w http.ResponseWriter, r *http.Request) {
	info, err := a.Catalog.Watch(r.Context(), chi.URLParam(r, "provider"), chi.URLParam(r, "episodeID"))
	if err != nil {
		respondWithError(w, r, apperrors.FromCatalogError(r.Context(), err, "Episode not found"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// WatchlistResponse is the GET /api/watchlist body.
type WatchlistResponse struct {
	Watchlist []core.WatchlistEntry `json:"watchlist"`
	Total     int                   `json:"total"`
}

// WatchlistRequest is the POST /api/watchlist body.
type WatchlistRequest struct {
	AnimeID       *string `json:"anime_id"`
	Title         *string `json:"title"`
	Image         *string `json:"image"`
	Provider      string  `json:"provider,omitempty"`
	TotalEpisodes int     `json:"total_episodes,omitempty"`
	Status        string  `json:"status,omitempty"`
}

// MessageResponse acknowledges a watchlist mutation.
type MessageResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Entry   *core.WatchlistEntry `json:"entry,omitempty"`
}

// ListWatchlist handles GET /api/watchlist.
func (a *API) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := a.Watchlist.List(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Failed to load watchlist"))
		return
	}
	writeJSON(w, http.StatusOK, WatchlistResponse{Watchlist: entries, Total: len(entries)})
}

// AddWatchlist handles POST /api/watchlist. anime_id, title and image are
// required; status defaults to watching.
func (a *API) AddWatchlist(w http.ResponseWriter, r *http.Request) {
	var req WatchlistRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Request body must be a JSON object"))
		return
	}
	if req.AnimeID == nil || req.Title == nil || req.Image == nil {
		respondWithError(w, r, apperrors.NewInvalidInputError("Missing required fields"))
		return
	}

	entry := core.WatchlistEntry{
		Anime: core.Anime{
			ID:       *req.AnimeID,
			Provider: req.Provider,
			Title:    *req.Title,
			Image:    *req.Image,
		},
		TotalEpisodes: req.TotalEpisodes,
		WatchStatus:   req.Status,
	}
	if a.Clock != nil {
		entry.AddedAt = a.Clock().UTC()
	}

	saved, err := a.Watchlist.Add(r.Context(), entry)
	if err != nil {
		respondWithError(w, r, apperrors.FromCatalogError(r.Context(), err, "Failed to add to watchlist"))
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Added to watchlist", Entry: &saved})
}

// RemoveWatchlist handles DELETE /api/watchlist/{id}.
func (a *API) RemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	removed, err := a.Watchlist.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "Failed to remove from watchlist"))
		return
	}
	if !removed {
		respondWithError(w, r, apperrors.NewNotFoundError("Anime not found in watchlist"))
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Removed from watchlist"})
}

// APIHealthResponse is the GET /api/health body.
type APIHealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Health handles GET /api/health.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	if a.Clock != nil {
		now = a.Clock()
	}
	writeJSON(w, http.StatusOK, APIHealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339),
		Version:   APIVersion,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
