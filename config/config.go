package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config captures every setting the archiver needs. It is constructed once and
// passed into components explicitly; nothing reads ambient state.
type Config struct {
	IMAPServer string
	IMAPPort   int
	Account    string
	Password   string

	Folders        []string
	ExcludeFolders []string

	FromDate    string
	MaxMessages int
	StrictStop  bool

	OutputRoot      string
	PeopleSubfolder string
	MediaSubfolder  string

	ContactsPath string
	MeSlug       string

	StateDir string
	LogLevel string
	LogDir   string
	Debug    bool
}

// FloorDate parses FromDate, or returns the zero time when no floor is set.
func (c Config) FloorDate() (time.Time, error) {
	if c.FromDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", c.FromDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse from-date %q: %w", c.FromDate, err)
	}
	return t, nil
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) error {
	defaultStateDir, err := defaultStateDir()
	if err != nil {
		return err
	}

	flags := cmd.PersistentFlags()
	flags.String("settings", "", "Path to a YAML settings file (flags override it)")
	flags.String("imap-server", "", "IMAP server hostname")
	flags.Int("imap-port", 993, "IMAP server port")
	flags.String("account", "", "Email account to log in as")
	flags.String("password", "", "Account password (falls back to MAILMD_PASS env var)")
	flags.StringSlice("folders", nil, "Folders to archive (default: all folders on the server)")
	flags.StringSlice("exclude-folders", nil, "Folders to skip, including their subfolders")
	flags.String("from-date", "", "Earliest message date to archive (YYYY-MM-DD)")
	flags.Int("max-messages", 0, "Stop after this many accepted messages (0 = unlimited)")
	flags.Bool("strict-stop", false, "Stop scanning a folder at the first message older than --from-date")
	flags.String("output-root", "", "Root directory for archived Markdown and media")
	flags.String("people-subfolder", "People", "Subfolder under the output root for per-person notes")
	flags.String("media-subfolder", "media", "Subfolder for extracted attachments")
	flags.String("contacts", "", "Path to the YAML contacts file")
	flags.String("me", "", "Slug of the mailbox owner, added to every recipient list")
	flags.String("state-dir", defaultStateDir, "Directory for the processed-message state file")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (empty: stdout only)")
	flags.Bool("debug", false, "Log every message id while parsing")

	return nil
}

// LoadConfig merges the optional settings file with the parsed flags into a
// Config. Flags that were set explicitly win over the settings file.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	v := viper.New()
	if settingsPath, err := flags.GetString("settings"); err == nil && settingsPath != "" {
		v.SetConfigFile(settingsPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read settings file: %w", err)
		}
	}

	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	cfg := Config{
		IMAPServer:      v.GetString("imap-server"),
		IMAPPort:        v.GetInt("imap-port"),
		Account:         v.GetString("account"),
		Password:        v.GetString("password"),
		Folders:         v.GetStringSlice("folders"),
		ExcludeFolders:  v.GetStringSlice("exclude-folders"),
		FromDate:        v.GetString("from-date"),
		MaxMessages:     v.GetInt("max-messages"),
		StrictStop:      v.GetBool("strict-stop"),
		OutputRoot:      v.GetString("output-root"),
		PeopleSubfolder: v.GetString("people-subfolder"),
		MediaSubfolder:  v.GetString("media-subfolder"),
		ContactsPath:    v.GetString("contacts"),
		MeSlug:          v.GetString("me"),
		StateDir:        v.GetString("state-dir"),
		LogLevel:        strings.ToLower(v.GetString("log-level")),
		LogDir:          v.GetString("log-dir"),
		Debug:           v.GetBool("debug"),
	}

	if cfg.Password == "" {
		cfg.Password = os.Getenv("MAILMD_PASS")
	}

	if cfg.StateDir == "" {
		cfg.StateDir, _ = defaultStateDir()
	}
	cfg.StateDir = filepath.Clean(cfg.StateDir)

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.IMAPPort <= 0 || cfg.IMAPPort > 65535 {
		return fmt.Errorf("--imap-port must be between 1 and 65535")
	}
	if cfg.MaxMessages < 0 {
		return fmt.Errorf("--max-messages must not be negative")
	}
	if _, err := cfg.FloorDate(); err != nil {
		return err
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}

// ValidateArchive checks the settings every archival run needs, whether it
// reads from IMAP or a local mbox file.
func ValidateArchive(cfg Config) error {
	if cfg.OutputRoot == "" {
		return fmt.Errorf("--output-root is required")
	}
	if cfg.ContactsPath == "" {
		return fmt.Errorf("--contacts is required")
	}
	return nil
}

// ValidateIMAP checks the settings that only network runs need.
func ValidateIMAP(cfg Config) error {
	if cfg.IMAPServer == "" {
		return fmt.Errorf("--imap-server is required")
	}
	if cfg.Account == "" {
		return fmt.Errorf("--account is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("password must be provided via --password, the settings file or MAILMD_PASS")
	}
	return nil
}

func defaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mailmd", "state"), nil
}
