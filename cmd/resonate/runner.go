package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/cesargomez89/resonate/internal/app"
	"github.com/cesargomez89/resonate/internal/audio"
	"github.com/cesargomez89/resonate/internal/catalog"
	"github.com/cesargomez89/resonate/internal/config"
	"github.com/cesargomez89/resonate/internal/constants"
	"github.com/cesargomez89/resonate/internal/domain"
	"github.com/cesargomez89/resonate/internal/downloader"
	httpapp "github.com/cesargomez89/resonate/internal/http"
	"github.com/cesargomez89/resonate/internal/logger"
	"github.com/cesargomez89/resonate/internal/playback"
	"github.com/cesargomez89/resonate/internal/search"
	"github.com/cesargomez89/resonate/internal/storage"
	"github.com/cesargomez89/resonate/internal/store"
)

// runtime holds what every command shares.
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *store.DB
	library *store.Library
	libSvc  *app.LibraryService
	prefs   *app.Preferences
}

func setup(cmd *cli.Command) (*runtime, error) {
	cfg, err := config.LoadFile(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := storage.EnsureDir(cfg.MusicDir); err != nil {
		return nil, fmt.Errorf("failed to create music directory: %w", err)
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if n, err := db.PurgeExpiredCache(); err != nil {
		log.Warn("Failed to purge catalog cache", "error", err)
	} else if n > 0 {
		log.Debug("Purged expired catalog cache", "entries", n)
	}

	library := store.NewLibrary(db, cfg.MusicDir, cfg.SearchLimit)
	return &runtime{
		cfg:     cfg,
		log:     log,
		db:      db,
		library: library,
		libSvc:  app.NewLibraryService(db, library, log),
		prefs: app.NewPreferences(store.NewSettingsRepo(db), app.Defaults{
			Volume:       cfg.Volume,
			OnlineSearch: cfg.OnlineSearch,
		}, log),
	}, nil
}

func (rt *runtime) close() {
	if err := rt.db.Close(); err != nil {
		rt.log.Warn("Failed to close database", "error", err)
	}
}

func (rt *runtime) aggregator() *search.Aggregator {
	remote := catalog.NewRemote(rt.db, catalog.Options{
		RatePerSecond: rt.cfg.SearchRate,
		CacheTTL:      rt.cfg.SearchCacheTTL,
		Limit:         rt.cfg.SearchLimit,
	})
	return search.NewAggregator(rt.library, remote, rt.log)
}

func (rt *runtime) scheduler(ctx context.Context) *downloader.Scheduler {
	if rt.cfg.InstallYTDLP {
		if err := downloader.InstallYTDLP(ctx); err != nil {
			rt.log.Warn("yt-dlp install failed, relying on PATH", "error", err)
		}
	}

	sched := downloader.New(downloader.NewYTDLPFetcher(rt.log.Logger), downloader.Options{
		Logger:      rt.log,
		MaxInFlight: rt.cfg.MaxDownloads,
		Workers:     rt.cfg.Workers,
	})
	sched.OnEvent(rt.libSvc.HandleDownloadEvent)
	return sched
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	out, err := audio.NewSpeakerOutput(constants.DefaultSampleRate, rt.prefs.Volume())
	if err != nil {
		return err
	}
	defer out.Close()

	engine, err := playback.New(out, playback.Options{
		Logger:       rt.log,
		TickInterval: rt.cfg.TickInterval,
		OnTrackError: func(song domain.Song, err error) {
			rt.log.WithSong(song.ID, song.Name).Warn("Skipping unplayable song", "error", err)
		},
	})
	if err != nil {
		return err
	}
	engine.Start()
	defer engine.Close()

	sched := rt.scheduler(ctx)
	defer sched.Close()

	h := &httpapp.Handler{
		Downloads: sched,
		Search:    rt.aggregator(),
		Player:    app.NewPlayer(engine, rt.prefs, rt.log),
		Playlists: app.NewPlaylistService(rt.db, rt.cfg.MusicDir, rt.log),
		Library:   rt.libSvc,
		Prefs:     rt.prefs,
		Logger:    rt.log.WithComponent("http"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + rt.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.log.Info("Server listening", "addr", srv.Addr, "music_dir", rt.cfg.MusicDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	rt.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return errors.New("search needs a query")
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	remote := rt.prefs.OnlineSearch()
	if cmd.IsSet("remote") {
		remote = cmd.Bool("remote")
	}

	handle := rt.aggregator().Start(ctx, query, search.Options{Remote: remote})
	enc := json.NewEncoder(os.Stdout)
	for song := range handle.Stream(ctx) {
		if cmd.Bool("json") {
			if err := enc.Encode(song); err != nil {
				return err
			}
			continue
		}
		mark := " "
		if song.Downloaded() {
			mark = "*"
		}
		fmt.Printf("%s %-14s %s - %s\n", mark, song.ID, song.Artist, song.Name)
	}

	if err := handle.Err(); err != nil {
		rt.log.Warn("Search incomplete", "error", err)
	}
	return ctx.Err()
}

func runFetch(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return errors.New("fetch needs at least one id")
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	sched := rt.scheduler(ctx)
	defer sched.Close()

	var (
		mu      sync.Mutex
		waiting = make(map[string]struct{})
		failed  int
		done    = make(chan struct{})
	)
	finish := func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := waiting[key]; !ok {
			return
		}
		delete(waiting, key)
		if err != nil {
			failed++
		}
		if len(waiting) == 0 {
			close(done)
		}
	}
	sched.OnEvent(func(ev downloader.Event) {
		switch ev.Type {
		case downloader.EventCompleted:
			fmt.Printf("downloaded %s -> %s\n", ev.Request.Song.ID, ev.Request.Song.File)
			finish(ev.Request.Song.Key(), nil)
		case downloader.EventFailed:
			fmt.Printf("failed %s: %v\n", ev.Request.Song.ID, ev.Err)
			finish(ev.Request.Song.Key(), ev.Err)
		case downloader.EventAlreadyDownloaded:
			fmt.Printf("already downloaded %s\n", ev.Request.Song.ID)
		}
	})

	playlistID := cmd.Int64("playlist")
	mu.Lock()
	for _, id := range ids {
		req, err := rt.libSvc.NewDownloadRequest(domain.Song{ID: id, Name: id}, playlistID)
		if err != nil {
			mu.Unlock()
			return err
		}
		adm := sched.Submit(req)
		if adm.Outcome != downloader.Rejected {
			waiting[req.Song.Key()] = struct{}{}
		}
	}
	if len(waiting) == 0 {
		close(done)
	}
	mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(ids))
	}
	return nil
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("import needs a file path")
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	song, err := rt.libSvc.ImportFile(path, app.ImportOptions{
		Name:       cmd.String("name"),
		Artist:     cmd.String("artist"),
		Album:      cmd.String("album"),
		PlaylistID: cmd.Int64("playlist"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("imported %s as %s (%s - %s)\n", path, song.ID, song.Artist, song.Name)
	return nil
}

func runCacheClear(ctx context.Context, cmd *cli.Command) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.libSvc.ClearCatalogCache(); err != nil {
		return err
	}
	fmt.Println("catalog cache cleared")
	return nil
}
