package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reglet-dev/reglet-memes/config"
)

const (
	cfgKeyEndpoint = "endpoint"
	cfgKeyTimeout  = "timeout"
	cfgKeyLocale   = "locale"
	cfgKeyLogLevel = "log_level"
)

// Global flag values.
var (
	flagConfig string
	settings   = viper.New()
)

var rootCmd = &cobra.Command{
	Use:           "memes-api",
	Short:         "Run the memes extension against a meme-generator-rs backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "config file (default: memes.yaml in . or $HOME/.config/memes-api)")
	flags.String("endpoint", "", "backend base URL (env MEMES_ENDPOINT)")
	flags.String("timeout", "", "backend request timeout (env MEMES_TIMEOUT)")
	flags.String("locale", "", "message locale (env MEMES_LOCALE)")
	flags.String("log-level", "info", "log level: debug, info, warn, error (env MEMES_LOG_LEVEL)")

	_ = settings.BindPFlag(cfgKeyEndpoint, flags.Lookup("endpoint"))
	_ = settings.BindPFlag(cfgKeyTimeout, flags.Lookup("timeout"))
	_ = settings.BindPFlag(cfgKeyLocale, flags.Lookup("locale"))
	_ = settings.BindPFlag(cfgKeyLogLevel, flags.Lookup("log-level"))
	settings.SetEnvPrefix("MEMES")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	settings.AutomaticEnv()

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(schemaCmd)
}

// loadConfig resolves the config file, validates it, and applies flag and
// environment overrides. Precedence: flag > env > file > defaults.
func loadConfig() (*config.Config, error) {
	path, err := resolveConfigFile()
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if v := settings.GetString(cfgKeyEndpoint); v != "" {
		cfg.Request.Endpoint = v
	}
	if v := settings.GetString(cfgKeyTimeout); v != "" {
		cfg.Request.Timeout = v
	}
	if v := settings.GetString(cfgKeyLocale); v != "" {
		cfg.Locale = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigFile returns the config file to load, or "" when none exists.
func resolveConfigFile() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}

	finder := viper.New()
	finder.SetConfigName("memes")
	finder.SetConfigType("yaml")
	finder.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		finder.AddConfigPath(home + "/.config/memes-api")
	}
	if err := finder.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("find config: %w", err)
	}
	return finder.ConfigFileUsed(), nil
}

func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.GetString(cfgKeyLogLevel))); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
