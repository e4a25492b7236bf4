package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lrstanley/go-ytdlp"

	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/storage"
)

// Fetcher retrieves the audio for externalID into dir and returns the path of
// the produced file.
type Fetcher interface {
	Fetch(ctx context.Context, dir, externalID string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, dir, externalID string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, dir, externalID string) (string, error) {
	return f(ctx, dir, externalID)
}

// TargetPath is where a fetch of externalID into dir lands.
func TargetPath(dir, externalID string) string {
	return storage.AudioPath(dir, externalID)
}

// YTDLPFetcher drives yt-dlp to extract an mp3 of a YouTube Music video.
type YTDLPFetcher struct {
	logger *slog.Logger
}

func NewYTDLPFetcher(logger *slog.Logger) *YTDLPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLPFetcher{logger: logger}
}

func (f *YTDLPFetcher) Fetch(ctx context.Context, dir, externalID string) (string, error) {
	if err := storage.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	url := fmt.Sprintf(constants.YouTubeMusicWatchURL, externalID)
	dl := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat("mp3").
		NoPlaylist().
		NoPart().
		Quiet().
		NoWarnings().
		Output(filepath.Join(dir, externalID+".%(ext)s"))

	f.logger.Debug("Running yt-dlp", "url", url)
	if _, err := dl.Run(ctx, url); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w", err)
	}

	path := TargetPath(dir, externalID)
	if !storage.FileExists(path) {
		return "", fmt.Errorf("yt-dlp produced no file at %s", path)
	}
	return path, nil
}

// InstallYTDLP downloads a yt-dlp binary into the user cache when none is
// available on PATH.
func InstallYTDLP(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}
