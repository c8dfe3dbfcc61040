package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/drewdunne/slashdispatch/internal/command"
	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/event"
	"github.com/drewdunne/slashdispatch/internal/handler"
	"github.com/drewdunne/slashdispatch/internal/logging"
	"github.com/drewdunne/slashdispatch/internal/registry"
	"github.com/drewdunne/slashdispatch/internal/server"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var logger = log.WithField("package", "main")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slashdispatch",
		Short: "Dispatch CI jobs from slash commands in pull request comments",
		Long: `slashdispatch reads /platform_tests and /benchmark comments on GitHub pull
requests and GitLab merge requests, checks the author's permission, and
dispatches the matching job to a repository_dispatch event, a workflow, a
GitLab pipeline, or a local container.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd(), newHandleCmd(), newParseCmd(), newVersionCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	var configPath, envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnv(envFile)

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to config file")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (optional)")
	return cmd
}

func newHandleCmd() *cobra.Command {
	var opts handleOptions

	cmd := &cobra.Command{
		Use:   "handle",
		Short: "Process a single comment event file and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandle(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to config file (defaults apply when empty)")
	cmd.Flags().StringVar(&opts.eventPath, "event-path", os.Getenv("GITHUB_EVENT_PATH"), "Path to the event payload")
	cmd.Flags().StringVar(&opts.eventName, "event-name", envOr("GITHUB_EVENT_NAME", "issue_comment"), "Event name of the payload")
	cmd.Flags().StringVar(&opts.token, "token", os.Getenv("GITHUB_TOKEN"), "GitHub token, overrides providers.github.token")
	return cmd
}

func newParseCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "parse <comment body>",
		Short: "Parse a comment body and print the command as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
			}

			grammar, err := registry.Grammar(cfg)
			if err != nil {
				return err
			}
			return runParse(cmd.OutOrStdout(), grammar, args[0])
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file with extra commands")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slashdispatch v%s\n", version)
		},
	}
}

func loadEnv(envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithField("path", envFile).WithError(err).Warn("Could not load env file")
		}
		return
	}
	// Missing default files are fine.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("/etc/slashdispatch/slashdispatch.env")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupLogging(cfg *config.Config) (io.Closer, error) {
	return logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Dir:    cfg.Logging.Dir,
	})
}

func runServe(cfg *config.Config) error {
	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Logging.Dir != "" {
		scheduler := logging.NewCleanupScheduler(logging.NewCleaner(cfg.Logging.Dir, cfg.Logging.RetentionDays), 24*time.Hour)
		scheduler.Start()
		defer scheduler.Stop()
	}

	reg, err := registry.New(cfg)
	if err != nil {
		return fmt.Errorf("building registry: %w", err)
	}
	defer reg.Close()

	h := handler.NewCommandHandler(cfg, reg.Grammar(), reg, reg.Router())
	router := event.NewRouter(cfg, func(ctx context.Context, evt *event.Event) error {
		_, err := h.Handle(ctx, evt)
		return err
	})

	var backends []string
	for _, d := range reg.Router().Backends() {
		backends = append(backends, d.Name())
	}

	srv := server.New(cfg, router, reg)
	logger.WithField("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		WithField("providers", reg.List()).
		WithField("backends", backends).
		Info("Starting slashdispatch server")

	return srv.ListenAndServeWithShutdown()
}

func runParse(w io.Writer, grammar *command.Grammar, body string) error {
	parsed, err := grammar.Parse(body)
	if err != nil {
		var parseErr *command.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintln(w, parseErr.Usage)
		}
		return errors.New("comment is not a valid command")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(parsed)
}
