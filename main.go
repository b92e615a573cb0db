// Command mailmd archives mailbox messages as Markdown notes in a
// people-centric vault.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdvault/mailmd/attach"
	"github.com/mdvault/mailmd/config"
	"github.com/mdvault/mailmd/export"
	"github.com/mdvault/mailmd/imap"
	"github.com/mdvault/mailmd/mbox"
	"github.com/mdvault/mailmd/parse"
	"github.com/mdvault/mailmd/people"
	"github.com/mdvault/mailmd/progress"
	"github.com/mdvault/mailmd/state"
	"github.com/mdvault/mailmd/stats"
	"github.com/mdvault/mailmd/walker"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mailmd",
		Short:         "Archive mailbox messages as Markdown notes",
		Long:          "mailmd scans mail folders, keeps messages from known senders and writes each one as a Markdown note with YAML front matter into a per-person folder.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runIMAP,
	}

	if err := config.RegisterFlags(rootCmd); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(newFoldersCmd(), newMboxCmd())
	return rootCmd
}

func runIMAP(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.ValidateIMAP(cfg); err != nil {
		return err
	}
	if err := config.ValidateArchive(cfg); err != nil {
		return err
	}

	logger, cleanup, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	session, err := imap.Dial(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Logout(); err != nil {
			logger.Warn("logout failed", "err", err)
		}
	}()

	return runArchive(cfg, session, logger)
}

func newFoldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List all folders on the IMAP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.ValidateIMAP(cfg); err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			session, err := imap.Dial(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := session.Logout(); err != nil {
					logger.Warn("logout failed", "err", err)
				}
			}()

			folders, err := session.ListFolders()
			if err != nil {
				return err
			}
			for _, folder := range folders {
				fmt.Fprintln(cmd.OutOrStdout(), folder)
			}
			return nil
		},
	}
}

func newMboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mbox <file>",
		Short: "Archive messages from a local mbox file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.ValidateArchive(cfg); err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			session, err := mbox.Open(args[0])
			if err != nil {
				return err
			}
			return runArchive(cfg, session, logger)
		},
	}
}

// runArchive wires the run: contacts, state, stats, progress, assembler and
// walker, then writes the accepted messages and the end-of-run report.
func runArchive(cfg config.Config, session walker.Session, logger *slog.Logger) error {
	dir, err := people.Load(cfg.ContactsPath)
	if err != nil {
		return err
	}

	tracker, err := state.NewFileTracker(cfg.StateDir, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			logger.Warn("state file close failed", "err", err)
		}
	}()

	reporter := stats.NewReporter(logger)
	line := progress.New(cfg.LogLevel == "info")
	line.Start()
	defer line.Stop()

	emit := func(evt stats.Event) {
		reporter.Handle(evt)
		line.Update(evt)
	}

	extractor := attach.NewExtractor(cfg, attach.OSSink{}, logger)
	asm := parse.NewAssembler(cfg, dir, extractor, emit, logger)

	msgs, err := walker.New(cfg, asm, tracker, emit, logger).Run(session)
	if err != nil {
		return err
	}

	if err := export.WriteMessages(cfg, msgs, logger); err != nil {
		return err
	}

	line.Stop()
	reporter.Report(dir.Unresolved())
	return nil
}

// setupLogger builds the run logger: text output to stdout, optionally teed
// into a timestamped file under --log-dir.
func setupLogger(cfg config.Config) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := io.Writer(os.Stdout)
	cleanup := func() {}
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		name := fmt.Sprintf("mailmd_%s.log", time.Now().Format("20060102_150405"))
		file, err := os.Create(filepath.Join(cfg.LogDir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		cleanup = func() { _ = file.Close() }
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, cleanup, nil
}
