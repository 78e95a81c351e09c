package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/shhac/mrtea/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("mrtea %s (commit: %s, built: %s)\n", version, commit, date)
	}

	app := &cli.App{
		Name:    "mrtea",
		Usage:   "review a GitLab merge request one diff at a time",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "project URL, e.g. https://gitlab.com/group/repo (a merge request page also works)",
				EnvVars: []string{"MRTEA_URL"},
			},
			&cli.IntFlag{
				Name:  "mr",
				Usage: "merge request IID (optional when --url names a merge request)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "include diffs approved in earlier runs",
			},
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "review a built-in sample merge request without GitLab",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file",
				Value: config.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "credential file holding APP_ID, APP_SECRET and tokens",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
