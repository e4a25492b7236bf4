package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/storage"
)

var (
	ErrFetchFailed = errors.New("fetch failed")
	ErrNoDirectory = errors.New("download request has no directory")
)

// JobHandler performs one download and returns the local path.
type JobHandler interface {
	Handle(ctx context.Context, req domain.DownloadRequest, logger *slog.Logger) (string, error)
}

// FetchHandler short-circuits when the target file already exists and
// otherwise invokes the fetch tool once.
type FetchHandler struct {
	Fetcher Fetcher
}

func (h *FetchHandler) Handle(ctx context.Context, req domain.DownloadRequest, logger *slog.Logger) (string, error) {
	if req.Directory == "" {
		return "", ErrNoDirectory
	}

	target := TargetPath(req.Directory, req.Song.ID)
	if storage.FileExists(target) {
		logger.Info("File already on disk, skipping fetch", "file_path", target)
		return target, nil
	}

	path, err := h.Fetcher.Fetch(ctx, req.Directory, req.Song.ID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if !storage.FileExists(path) {
		return "", fmt.Errorf("%w: no file at %s", ErrFetchFailed, path)
	}
	return path, nil
}
