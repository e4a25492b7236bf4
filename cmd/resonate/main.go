package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "resonate",
		Usage: "Search, download and play your music library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
				Sources: cli.EnvVars("RESONATE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			searchCommand(),
			fetchCommand(),
			importCommand(),
			cacheCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "resonate: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API with playback on the local audio device",
		Action: runServe,
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the cached library and the remote catalog",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Also query the remote catalog (defaults to the online search setting)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print one JSON object per result",
			},
		},
		Action: runSearch,
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Download songs by external id and wait for them",
		ArgsUsage: "<id> [id...]",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Add the downloaded songs to this playlist",
			},
		},
		Action: runFetch,
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Copy a local audio file into the library",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Song name (defaults to the file's tags)"},
			&cli.StringFlag{Name: "artist", Usage: "Artist (defaults to the file's tags)"},
			&cli.StringFlag{Name: "album", Usage: "Album (defaults to the file's tags)"},
			&cli.Int64Flag{Name: "playlist", Aliases: []string{"p"}, Usage: "Add the song to this playlist"},
		},
		Action: runImport,
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage memoized remote catalog lookups",
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Forget every cached remote lookup",
				Action: runCacheClear,
			},
		},
	}
}
