package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cesargomez89/resonate/internal/app"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/downloader"
	"github.com/cesargomez89/resonate/internal/http/dto"
	"github.com/cesargomez89/resonate/internal/playback"
	"github.com/cesargomez89/resonate/internal/search"
)

// SearchSongs streams results as newline-delimited JSON while the producers
// run. Producer failures are reported in the X-Search-Error trailer.
func (h *Handler) SearchSongs(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("q is required"))
		return
	}

	remote := h.Prefs.OnlineSearch()
	if v := r.URL.Query().Get("remote"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, errors.New("remote must be a boolean"))
			return
		}
		remote = b
	}

	handle := h.Search.Start(r.Context(), query, search.Options{Remote: remote})

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Search-ID", handle.ID)
	w.Header().Set("Trailer", "X-Search-Error")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for {
		song, ok, err := handle.Next(r.Context())
		if err != nil || !ok {
			break
		}
		if err := enc.Encode(song); err != nil {
			h.Logger.Warn("Search client went away", "search_id", handle.ID, "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := handle.Err(); err != nil {
		w.Header().Set("X-Search-Error", err.Error())
	}
}

func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.Library.Songs()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if songs == nil {
		songs = []domain.Song{}
	}
	h.writeJSON(w, http.StatusOK, songs)
}

func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	song, err := h.Library.Song(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if song == nil {
		h.writeError(w, http.StatusNotFound, app.ErrSongNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, song)
}

func (h *Handler) ImportFile(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportRequest
	if !h.decode(w, r, &req) {
		return
	}

	song, err := h.Library.ImportFile(req.Path, app.ImportOptions{
		Name:       req.Name,
		Artist:     req.Artist,
		Album:      req.Album,
		PlaylistID: req.PlaylistID,
	})
	if errors.Is(err, app.ErrImportSource) {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, song)
}

func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Library.ClearCatalogCache(); err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListDownloads(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, dto.DownloadsResponse{
		InFlight:    h.Downloads.InFlight(),
		Backlog:     h.Downloads.Backlog(),
		MaxInFlight: h.Downloads.MaxInFlight(),
	})
}

func (h *Handler) SubmitDownload(w http.ResponseWriter, r *http.Request) {
	var req dto.DownloadRequest
	if !h.decode(w, r, &req) {
		return
	}

	dr, err := h.Library.NewDownloadRequest(req.Song, req.PlaylistID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	adm := h.Downloads.Submit(dr)
	status := http.StatusAccepted
	if adm.Outcome == downloader.Rejected {
		status = http.StatusOK
		if adm.Reason == downloader.ReasonClosed {
			status = http.StatusServiceUnavailable
		}
	}
	h.writeJSON(w, status, adm)
}

func (h *Handler) DownloadState(w http.ResponseWriter, r *http.Request) {
	songID := r.URL.Query().Get("song_id")
	if songID == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("song_id is required"))
		return
	}
	key := domain.Song{ID: songID}.Key()
	state, known := h.Downloads.State(key)
	h.writeJSON(w, http.StatusOK, dto.StateResponse{Key: key, State: state, Known: known})
}

func (h *Handler) PlayerStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, dto.NewPlayerResponse(h.Player.Status()))
}

// resolve answers the request itself when the song cannot be played.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (domain.Song, bool) {
	var req dto.SongRequest
	if !h.decode(w, r, &req) {
		return domain.Song{}, false
	}
	song, err := h.Library.Resolve(req.Song)
	switch {
	case errors.Is(err, app.ErrSongNotFound):
		h.writeError(w, http.StatusNotFound, err)
		return song, false
	case errors.Is(err, app.ErrNotPlayable):
		h.writeError(w, http.StatusConflict, err)
		return song, false
	case err != nil:
		h.writeError(w, http.StatusInternalServerError, err)
		return song, false
	}
	return song, true
}

func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	song, ok := h.resolve(w, r)
	if !ok {
		return
	}
	h.Player.Play(song)
	h.PlayerStatus(w, r)
}

func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	song, ok := h.resolve(w, r)
	if !ok {
		return
	}
	h.Player.Queue(song)
	h.PlayerStatus(w, r)
}

func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	h.Player.Skip()
	h.PlayerStatus(w, r)
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.Player.Pause()
	h.PlayerStatus(w, r)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.Player.Resume()
	h.PlayerStatus(w, r)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Player.Clear()
	h.PlayerStatus(w, r)
}

func (h *Handler) SetSpeed(w http.ResponseWriter, r *http.Request) {
	var req dto.SpeedRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Player.SetSpeed(req.Factor()); err != nil {
		if errors.Is(err, playback.ErrInvalidSpeed) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.PlayerStatus(w, r)
}

func (h *Handler) SetVolume(w http.ResponseWriter, r *http.Request) {
	var req dto.VolumeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.Player.SetVolume(req.Linear())
	h.PlayerStatus(w, r)
}

func (h *Handler) SetLooping(w http.ResponseWriter, r *http.Request) {
	var req dto.LoopingRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.Player.SetLooping(req.Looping)
	h.PlayerStatus(w, r)
}

func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.Playlists.Search(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if playlists == nil {
		playlists = []domain.Playlist{}
	}
	h.writeJSON(w, http.StatusOK, playlists)
}

func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaylistRequest
	if !h.decode(w, r, &req) {
		return
	}
	pl, err := h.Playlists.Create(req.Name)
	if err != nil {
		h.writeError(w, http.StatusConflict, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, pl)
}

// playlistError maps service errors onto status codes.
func (h *Handler) playlistError(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrPlaylistNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	h.writeError(w, http.StatusInternalServerError, err)
}

func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	pl, err := h.Playlists.Get(id)
	if err != nil {
		h.playlistError(w, err)
		return
	}
	if pl.Songs == nil {
		pl.Songs = []domain.Song{}
	}
	h.writeJSON(w, http.StatusOK, pl)
}

func (h *Handler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Playlists.Delete(id); err != nil {
		h.playlistError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddPlaylistSong(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req dto.PlaylistSongRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Playlists.AddSong(id, req.SongID); err != nil {
		h.playlistError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemovePlaylistSong(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	songID, err := urlID(r, "songID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Playlists.RemoveSong(id, songID); err != nil {
		h.playlistError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ShufflePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := h.Playlists.Shuffle(id, h.Player); err != nil {
		h.playlistError(w, err)
		return
	}
	h.PlayerStatus(w, r)
}

func (h *Handler) ExportPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	path, err := h.Playlists.Export(id)
	if err != nil {
		h.playlistError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, dto.SettingsResponse{OnlineSearch: h.Prefs.OnlineSearch()})
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.SettingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.OnlineSearch != nil {
		if err := h.Prefs.SetOnlineSearch(*req.OnlineSearch); err != nil {
			h.writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	h.GetSettings(w, r)
}
