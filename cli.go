// cli.go
//
// Command tree:
//   - historyguesser serve            → HTTP game API
//   - historyguesser play [--daily]   → one game on stdin/stdout
//
// Configuration comes from the environment (see internal/config); flags
// override selected fields.

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robalobadob/historyguesser/assets"
	"github.com/robalobadob/historyguesser/internal/cache"
	"github.com/robalobadob/historyguesser/internal/config"
	"github.com/robalobadob/historyguesser/internal/daily"
	"github.com/robalobadob/historyguesser/internal/game"
	"github.com/robalobadob/historyguesser/internal/history"
	"github.com/robalobadob/historyguesser/internal/httpserver"
	"github.com/robalobadob/historyguesser/internal/metrics"
	"github.com/robalobadob/historyguesser/internal/store"
)

func newCmd() *cobra.Command {
	var cfg config.Config

	cmd := &cobra.Command{
		Use:     "historyguesser",
		Short:   "Guess the date of a historical event, one clue at a time.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			// Flags set on the command line win over the environment.
			overrideFromFlags(cmd.Flags(), &loaded, &cfg)
			cfg = loaded
			if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
			return cfg.Validate()
		},
	}

	pf := cmd.PersistentFlags()
	pf.SetNormalizeFunc(normalize)
	pf.StringVar(&cfg.Source, "source", "remote", "event source: remote or static (env: HISTORY_SOURCE)")
	pf.StringVar(&cfg.StaticFile, "static-file", "", "YAML corpus for the static source (env: HISTORY_STATIC_FILE)")
	pf.StringVar(&cfg.CachePath, "cache", "", "SQLite lookup cache path, empty disables (env: CACHE_PATH)")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "zerolog level (env: LOG_LEVEL)")

	cmd.AddCommand(newServeCmd(&cfg), newPlayCmd(&cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("historyguesser v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// overrideFromFlags copies the persistent flags the user actually set from
// flagged into dst.
func overrideFromFlags(fs *pflag.FlagSet, dst, flagged *config.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "source":
			dst.Source = flagged.Source
		case "static-file":
			dst.StaticFile = flagged.StaticFile
		case "cache":
			dst.CachePath = flagged.CachePath
		case "log-level":
			dst.LogLevel = flagged.LogLevel
		}
	})
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game API over HTTP",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg)
		},
	}
	cmd.Flags().SetNormalizeFunc(normalize)
	cmd.Flags().StringVarP(&port, "port", "p", "5175", "port to listen on (env: PORT)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	m := metrics.New()
	src, size, closeSrc, err := buildSource(cfg, m)
	if err != nil {
		return err
	}
	defer closeSrc()

	res := game.NewResolver(src, nil)
	srv := httpserver.New(store.NewMemoryStore(), res, m, httpserver.Options{
		ClientOrigin:  cfg.ClientOrigin,
		CorpusSize:    size,
		DailySalt:     cfg.DailySalt,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		CookieName:    cfg.CookieName,
		Production:    cfg.Production,
	})

	log.Info().
		Str("port", cfg.Port).
		Str("source", cfg.Source).
		Int("corpus", size).
		Bool("cache", cfg.CachePath != "").
		Msg("starting historyguesser")
	return srv.Start(ctx, ":"+cfg.Port)
}

func newPlayCmd(cfg *config.Config) *cobra.Command {
	var (
		dailyMode bool
		seed      uint64
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one game in the terminal",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

			src, size, closeSrc, err := buildSource(*cfg, nil)
			if err != nil {
				return err
			}
			defer closeSrc()

			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			res := game.NewResolver(src, game.NewRand(seed))

			mode, pick := game.ModeRandom, func() int { return game.RandomTargetID(res.Rand, size) }
			if dailyMode {
				mode, pick = game.ModeDaily, daily.Picker(time.Now(), cfg.DailySalt, size)
			}
			return play(cmd.Context(), res, mode, pick, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)
	fs.BoolVar(&dailyMode, "daily", false, "play today's shared target")
	fs.Uint64Var(&seed, "seed", 0, "seed the random target and tie-breaks")
	return cmd
}

// buildSource assembles the event source stack selected by cfg:
// remote client or static corpus, then the optional SQLite cache, then
// metrics instrumentation when m is non-nil. It also reports the id range
// targets are drawn from.
func buildSource(cfg config.Config, m *metrics.Metrics) (history.Source, int, func(), error) {
	var (
		src  history.Source
		size int
	)
	switch cfg.Source {
	case "static":
		st, err := loadStatic(cfg.StaticFile)
		if err != nil {
			return nil, 0, nil, err
		}
		src, size = st, st.Len()
	default:
		src = history.NewClient(history.ClientOptions{
			BaseURL:   cfg.BaseURL,
			UserAgent: "historyguesser/" + releaseVersion,
			Timeout:   cfg.Timeout,
			MaxTries:  cfg.MaxRetries,
			Backoff:   cfg.RetryBackoff,
		})
		size = cfg.CorpusSize
	}

	closer := func() {}
	if cfg.CachePath != "" {
		c, err := cache.Open(cfg.CachePath, src, cfg.CacheTTL)
		if err != nil {
			return nil, 0, nil, err
		}
		src = c
		closer = func() {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("close cache")
			}
		}
	}
	if m != nil {
		src = m.Instrument(src)
	}
	return src, size, closer, nil
}

func loadStatic(path string) (*history.Static, error) {
	if path != "" {
		return history.LoadStaticFile(path)
	}
	b, err := assets.SampleCorpus()
	if err != nil {
		return nil, fmt.Errorf("sample corpus: %w", err)
	}
	return history.LoadStatic(bytes.NewReader(b))
}
