package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/resonate/internal/app"
	"github.com/cesargomez89/resonate/internal/downloader"
	"github.com/cesargomez89/resonate/internal/http/dto"
	"github.com/cesargomez89/resonate/internal/logger"
	"github.com/cesargomez89/resonate/internal/search"
)

type Handler struct {
	Downloads *downloader.Scheduler
	Search    *search.Aggregator
	Player    *app.Player
	Playlists *app.PlaylistService
	Library   *app.LibraryService
	Prefs     *app.Preferences
	Logger    *logger.Logger
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.SearchSongs)

		r.Get("/songs", h.ListSongs)
		r.Get("/songs/{id}", h.GetSong)
		r.Post("/import", h.ImportFile)
		r.Delete("/cache", h.ClearCache)

		r.Get("/downloads", h.ListDownloads)
		r.Post("/downloads", h.SubmitDownload)
		r.Get("/downloads/state", h.DownloadState)

		r.Route("/player", func(r chi.Router) {
			r.Get("/", h.PlayerStatus)
			r.Post("/play", h.Play)
			r.Post("/queue", h.Queue)
			r.Post("/skip", h.Skip)
			r.Post("/pause", h.Pause)
			r.Post("/resume", h.Resume)
			r.Post("/clear", h.Clear)
			r.Put("/speed", h.SetSpeed)
			r.Put("/volume", h.SetVolume)
			r.Put("/looping", h.SetLooping)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", h.ListPlaylists)
			r.Post("/", h.CreatePlaylist)
			r.Get("/{id}", h.GetPlaylist)
			r.Delete("/{id}", h.DeletePlaylist)
			r.Post("/{id}/songs", h.AddPlaylistSong)
			r.Delete("/{id}/songs/{songID}", h.RemovePlaylistSong)
			r.Post("/{id}/shuffle", h.ShufflePlaylist)
			r.Post("/{id}/export", h.ExportPlaylist)
		})

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
	})
}

type validator interface {
	Validate() []dto.ValidationError
}

// decode reads a JSON body and runs its validation, answering the request
// itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return false
	}
	if val, ok := v.(validator); ok {
		if errs := val.Validate(); len(errs) > 0 {
			h.writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error:  dto.ToResponse(errs),
				Fields: dto.ToMap(errs),
			})
			return false
		}
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", "error", err)
	}
	h.writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
