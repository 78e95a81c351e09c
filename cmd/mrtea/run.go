package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/shhac/mrtea/internal/approval"
	"github.com/shhac/mrtea/internal/auth"
	"github.com/shhac/mrtea/internal/config"
	"github.com/shhac/mrtea/internal/demo"
	"github.com/shhac/mrtea/internal/gitlab"
	"github.com/shhac/mrtea/internal/highlight"
	"github.com/shhac/mrtea/internal/logging"
	"github.com/shhac/mrtea/internal/notify"
	"github.com/shhac/mrtea/internal/review"
	"github.com/shhac/mrtea/internal/ui"
)

// configOverrides maps the flags that shadow config keys. Unset flags are
// left out so the file and environment still apply.
func configOverrides(envFile, logLevel string) map[string]any {
	o := map[string]any{}
	if envFile != "" {
		o["env_file"] = envFile
	}
	if logLevel != "" {
		o["log_level"] = logLevel
	}
	return o
}

// resolveTarget splits the repository URL and picks the merge request IID,
// preferring --mr over an IID embedded in the URL.
func resolveTarget(rawURL string, mr int) (base, project string, iid int, err error) {
	base, project, err = gitlab.ParseRepoURL(rawURL)
	if err != nil {
		return "", "", 0, err
	}
	switch {
	case mr > 0:
		iid = mr
	case mr < 0:
		return "", "", 0, fmt.Errorf("--mr must be positive, got %d", mr)
	default:
		var ok bool
		if iid, ok = gitlab.MergeRequestIIDFromURL(rawURL); !ok {
			return "", "", 0, errors.New("--mr is required unless --url points at a merge request")
		}
	}
	return base, project, iid, nil
}

func startupWarnings(logWarning string, skipped []string, cacheAvailable bool) []string {
	var warnings []string
	if logWarning != "" {
		warnings = append(warnings, logWarning)
	}
	if !cacheAvailable {
		warnings = append(warnings, "Approval cache unavailable: approvals last for this run only")
	}
	for _, path := range skipped {
		warnings = append(warnings, fmt.Sprintf("Skipped %s: malformed diff", path))
	}
	return warnings
}

// source is where the merge request comes from and where actions go.
type source interface {
	review.Fetcher
	review.Remote
}

// gitlabSource wires the credential lifecycle into a GitLab client.
func gitlabSource(cfg *config.Config, base string, az auth.Authorizer) (*gitlab.Client, error) {
	envFile := auth.EnvFile{Path: cfg.EnvFile}
	settings, err := envFile.Load()
	if err != nil {
		return nil, err
	}
	if settings.AppID == "" || settings.AppSecret == "" {
		return nil, fmt.Errorf("%s must define %s and %s", cfg.EnvFile, auth.KeyAppID, auth.KeyAppSecret)
	}

	lifecycle := auth.NewLifecycle(
		settings.Credential,
		auth.NewOAuthExchanger(base, settings.AppID, settings.AppSecret, cfg.Scopes()),
		az,
		envFile,
		auth.Options{RefreshSkew: cfg.RefreshSkew, Logger: log.Logger},
	)
	return gitlab.NewClient(base, lifecycle, gitlab.Options{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log.Logger,
	}), nil
}

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(c.String("config"), configOverrides(c.String("env-file"), c.String("log-level")))
	if err != nil {
		return err
	}

	// An unusable cache dir must not stop the run: the approval store
	// degrades on its own, so logging falls back too.
	closer, logWarning, err := logging.SetupOrFallback(cfg.LogPath(), os.TempDir(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger := log.Logger

	authorizer := &auth.BrowserAuthorizer{
		Addr:    cfg.CallbackAddr,
		Timeout: cfg.AuthTimeout,
		Out:     os.Stderr,
		Logger:  logger,
	}

	var (
		base, project string
		iid           int
		src           source
	)
	if c.Bool("demo") {
		base, project, iid = demo.BaseURL, demo.Project, demo.IID
		src = demo.NewService(logger)
	} else {
		if c.String("url") == "" {
			return errors.New("--url is required (or use --demo)")
		}
		base, project, iid, err = resolveTarget(c.String("url"), c.Int("mr"))
		if err != nil {
			return err
		}
		src, err = gitlabSource(cfg, base, authorizer)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Loading %s!%d...\n", project, iid)
	loaded, err := review.Load(ctx, src, project, iid, logger)
	if err != nil {
		return err
	}

	store := approval.Open(cfg.CacheDir, gitlab.ProjectKey(base, project), logger)
	defer store.Close()

	session := review.NewSession(loaded.MergeRequest, loaded.Diffs, review.Options{
		All:    c.Bool("all"),
		Cache:  store,
		Remote: src,
		Notes:  loaded.Notes,
		Logger: logger,
	})
	logger.Info().
		Str("project", project).
		Int("iid", iid).
		Int("diffs", session.Total()).
		Int("to_review", session.Count()).
		Msg("session started")

	// The alternate screen owns the terminal from here on.
	authorizer.Out = io.Discard

	var notifier *notify.Notifier
	if cfg.NotifyOnComplete {
		notifier = notify.New("mrtea")
	}

	app := ui.New(session, ui.Options{
		Context:     ctx,
		Highlighter: highlight.New(cfg.Theme),
		Notifier:    notifier,
		OpenURL:     auth.OpenBrowser,
		Warnings:    startupWarnings(logWarning, loaded.Skipped, store.Available()),
		Logger:      logger,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
