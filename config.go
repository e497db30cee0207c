/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Seednode/partyfun/games/charades"
)

type Config struct {
	advanceDelay     time.Duration
	autoReset        time.Duration
	bind             string
	charadesDuration time.Duration
	dataDir          string
	envFile          string
	port             int
	prefix           string
	profile          bool
	revealDelay      time.Duration
	sessionTimeout   time.Duration
	tlsCert          string
	tlsKey           string
	verbose          bool
	version          bool

	log *zap.SugaredLogger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.revealDelay <= 0 {
		return fmt.Errorf("invalid reveal delay (must be positive): %s", c.revealDelay)
	}
	if c.advanceDelay <= 0 {
		return fmt.Errorf("invalid advance delay (must be positive): %s", c.advanceDelay)
	}
	if c.autoReset < 0 {
		return fmt.Errorf("invalid auto-reset delay (must not be negative): %s", c.autoReset)
	}
	if c.charadesDuration%time.Second != 0 || !slices.Contains(charades.Durations, int(c.charadesDuration/time.Second)) {
		return fmt.Errorf("invalid charades duration (must be one of 1m, 2m, 3m, 4m, 5m): %s", c.charadesDuration)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// loadEnvFile reads PARTYFUN_* settings from a dotenv file, if one exists.
// Variables already present in the environment take precedence.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(logDate)

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          "console",
		EncoderConfig:     enc,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// envFileDefault is read before any other setting, so it bypasses viper.
func envFileDefault() string {
	if path, ok := os.LookupEnv("PARTYFUN_ENV_FILE"); ok {
		return path
	}
	return ".env"
}

// bindEnv fills every flag not given on the command line from its PARTYFUN_*
// environment variable.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PARTYFUN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "partyfun",
		Short:         "Card games, spy words and tilt charades for your next party, served from one binary.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(cfg.envFile); err != nil {
				return err
			}

			bindEnv(v, cmd.Flags())

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			cfg.log = logger

			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.DurationVar(&cfg.advanceDelay, "advance-delay", 500*time.Millisecond, "pause between the last hidden word and the accusation phase (env: PARTYFUN_ADVANCE_DELAY)")
	fs.DurationVar(&cfg.autoReset, "auto-reset", 5*time.Second, "time before a finished spy-word round resets, 0 to disable (env: PARTYFUN_AUTO_RESET)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PARTYFUN_BIND)")
	fs.DurationVar(&cfg.charadesDuration, "charades-duration", 3*time.Minute, "default length of a charades round (env: PARTYFUN_CHARADES_DURATION)")
	fs.StringVar(&cfg.envFile, "env-file", envFileDefault(), "dotenv file to read settings from (env: PARTYFUN_ENV_FILE)")
	fs.StringVar(&cfg.dataDir, "data-dir", "", "directory of game decks to use instead of the bundled ones (env: PARTYFUN_DATA_DIR)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PARTYFUN_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PARTYFUN_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PARTYFUN_PROFILE)")
	fs.DurationVar(&cfg.revealDelay, "reveal-delay", 2*time.Second, "time a revealed spy word stays on screen (env: PARTYFUN_REVEAL_DELAY)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: PARTYFUN_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PARTYFUN_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PARTYFUN_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PARTYFUN_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PARTYFUN_VERSION)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("partyfun v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
