package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cesargomez89/resonate/internal/domain"
)

func TestTargetPath(t *testing.T) {
	if got := TargetPath("/music", "abc"); got != filepath.Join("/music", "abc.mp3") {
		t.Errorf("TargetPath() = %s", got)
	}
}

func TestFetchHandler(t *testing.T) {
	dir := t.TempDir()
	log := discardLogger()

	tests := []struct {
		name    string
		fetch   FetcherFunc
		req     domain.DownloadRequest
		wantErr error
	}{
		{
			name: "missing directory",
			req:  domain.DownloadRequest{Song: domain.Song{ID: "a"}},
			fetch: func(ctx context.Context, dir, id string) (string, error) {
				t.Fatal("fetch must not run")
				return "", nil
			},
			wantErr: ErrNoDirectory,
		},
		{
			name: "fetch error is wrapped",
			req:  domain.DownloadRequest{Directory: dir, Song: domain.Song{ID: "b"}},
			fetch: func(ctx context.Context, dir, id string) (string, error) {
				return "", errors.New("HTTP Error 403")
			},
			wantErr: ErrFetchFailed,
		},
		{
			name: "fetch without output file",
			req:  domain.DownloadRequest{Directory: dir, Song: domain.Song{ID: "c"}},
			fetch: func(ctx context.Context, dir, id string) (string, error) {
				return filepath.Join(dir, "ghost.mp3"), nil
			},
			wantErr: ErrFetchFailed,
		},
		{
			name: "success",
			req:  domain.DownloadRequest{Directory: dir, Song: domain.Song{ID: "d"}},
			fetch: func(ctx context.Context, dir, id string) (string, error) {
				path := TargetPath(dir, id)
				return path, os.WriteFile(path, []byte("audio"), 0644)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &FetchHandler{Fetcher: tt.fetch}
			path, err := h.Handle(context.Background(), tt.req, log)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Handle failed: %v", err)
			}
			if path != TargetPath(dir, tt.req.Song.ID) {
				t.Errorf("Unexpected path %s", path)
			}
		})
	}
}
