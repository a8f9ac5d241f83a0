package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-ledview/internal/config"
	"github.com/coreman2200/funtimes-ledview/internal/frames"
	"github.com/coreman2200/funtimes-ledview/internal/matrix"
	"github.com/coreman2200/funtimes-ledview/internal/panel"
	"github.com/coreman2200/funtimes-ledview/internal/player"
	"github.com/coreman2200/funtimes-ledview/internal/privdrop"
	"github.com/coreman2200/funtimes-ledview/internal/web"
)

func main() {
	cfg := config.Default()
	var cfgPath string

	root := &cobra.Command{
		Use:   "ledview",
		Short: "Play a directory of image frames on an LED matrix panel",
		Example: "  ledview --frames-dir ./frames --led-rows 32 --led-cols 32\n" +
			"  ledview --config ledview.yaml --driver term",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveConfig(cmd, cfgPath, &cfg); err != nil {
				return err
			}
			return run(cmd.Context(), &cfg)
		},
	}
	bindFlags(root, &cfg, &cfgPath)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig merges the config file under the parsed flags, validates the
// result and configures logging from it. Logging comes last so a log_level
// from the file takes effect too.
func resolveConfig(cmd *cobra.Command, cfgPath string, cfg *config.Config) error {
	if cfgPath != "" {
		fc, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlagOverrides(cmd.Flags(), cfg, fc)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	return nil
}

func bindFlags(root *cobra.Command, cfg *config.Config, cfgPath *string) {
	root.Flags().StringVar(cfgPath, "config", "", "path to yaml config file")
	root.Flags().StringVar(&cfg.Driver, "driver", cfg.Driver, "output driver: spi | term | none")
	root.Flags().IntVar(&cfg.Panel.Rows, "led-rows", cfg.Panel.Rows, "rows per panel")
	root.Flags().IntVar(&cfg.Panel.Cols, "led-cols", cfg.Panel.Cols, "columns per panel")
	root.Flags().IntVar(&cfg.Panel.Chain, "led-chain", cfg.Panel.Chain, "daisy-chained panel count")
	root.Flags().IntVar(&cfg.Panel.Parallel, "led-parallel", cfg.Panel.Parallel, "parallel chain count")
	root.Flags().BoolVar(&cfg.Panel.Serpentine, "led-serpentine", cfg.Panel.Serpentine, "chain wired back-and-forth every row")
	root.Flags().IntVar(&cfg.Panel.Brightness, "led-brightness", cfg.Panel.Brightness, "brightness 1..100")
	root.Flags().StringVar(&cfg.SPI.Dev, "spi-dev", cfg.SPI.Dev, "SPI port (empty picks the first)")
	root.Flags().IntVar(&cfg.SPI.SpeedHz, "spi-speed-hz", cfg.SPI.SpeedHz, "SPI clock in Hz")
	root.Flags().StringVar(&cfg.Frames.Dir, "frames-dir", cfg.Frames.Dir, "directory of frame images")
	root.Flags().StringVar(&cfg.Frames.Ext, "frames-ext", cfg.Frames.Ext, "frame file extension")
	root.Flags().IntVar(&cfg.Frames.IntervalMs, "frame-interval", cfg.Frames.IntervalMs, "inter-frame interval in ms")
	root.Flags().BoolVar(&cfg.Frames.Loop, "loop", cfg.Frames.Loop, "loop the playlist forever")
	root.Flags().BoolVar(&cfg.Frames.Watch, "watch", cfg.Frames.Watch, "reload playlist when the directory changes")
	root.Flags().StringVar(&cfg.Web.Addr, "addr", cfg.Web.Addr, "control server listen address")
	root.Flags().BoolVar(&cfg.Web.Disabled, "no-web", cfg.Web.Disabled, "disable the control server")
	root.Flags().BoolVar(&cfg.DropPrivileges, "drop-privileges", cfg.DropPrivileges, "drop root after hardware init")
	root.Flags().StringVar(&cfg.DropUser, "drop-user", cfg.DropUser, "user to drop privileges to")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace|debug|info|warn|error")
}

func run(parent context.Context, cfg *config.Config) error {
	geo := panel.Geometry{
		Rows:       cfg.Panel.Rows,
		Cols:       cfg.Panel.Cols,
		Chain:      cfg.Panel.Chain,
		Parallel:   cfg.Panel.Parallel,
		Serpentine: cfg.Panel.Serpentine,
	}

	sink, err := openSink(cfg, geo.Count())
	if err != nil {
		return fmt.Errorf("driver init: %w", err)
	}

	if cfg.DropPrivileges {
		if err := privdrop.To(cfg.DropUser); err != nil {
			sink.Close()
			return err
		}
	}

	mtx, err := matrix.New(geo, sink, cfg.Panel.Brightness)
	if err != nil {
		sink.Close()
		return err
	}
	defer mtx.Close()

	playlist, err := frames.List(cfg.Frames.Dir, cfg.Frames.Ext)
	if err != nil {
		return err
	}
	log.Info().
		Int("frames", len(playlist)).
		Str("dir", cfg.Frames.Dir).
		Int("width", geo.Width()).
		Int("height", geo.Height()).
		Str("driver", cfg.Driver).
		Msg("starting playback")

	dec := frames.NewDecoder(geo.Width(), geo.Height())
	pl := player.New(mtx, dec, time.Duration(cfg.Frames.IntervalMs)*time.Millisecond, cfg.Frames.Loop)
	if err := pl.Load(playlist); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Web.Disabled {
		srv := web.NewServer(mtx, pl)
		go func() {
			if err := srv.Run(ctx, cfg.Web.Addr); err != nil {
				log.Error().Err(err).Msg("control server failed")
				stop()
			}
		}()
	}

	if cfg.Frames.Watch {
		w := &frames.Watcher{Dir: cfg.Frames.Dir, Ext: cfg.Frames.Ext, OnChange: pl.SetPlaylist}
		go w.Run(ctx)
	}

	err = pl.Run(ctx)
	if blankErr := mtx.Blank(); blankErr != nil {
		log.Debug().Err(blankErr).Msg("blank on shutdown failed")
	}
	return err
}

func openSink(cfg *config.Config, pixels int) (matrix.Sink, error) {
	switch cfg.Driver {
	case "spi":
		return matrix.OpenSPI(cfg.SPI.Dev, pixels, cfg.SPI.SpeedHz)
	case "term":
		return matrix.OpenTerm(pixels), nil
	default: // "none"
		return nopSink{}, nil
	}
}

// nopSink swallows frames; useful for smoke runs without hardware.
type nopSink struct{}

func (nopSink) Write([]byte) error { return nil }
func (nopSink) Close() error       { return nil }

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		zerolog.SetGlobalLevel(lvl)
	}
}

// applyFlagOverrides takes the file config as the base and re-applies every
// flag the user set on the command line.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config, fc *config.Config) {
	flagVals := *cfg
	*cfg = *fc
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Driver = flagVals.Driver
		case "led-rows":
			cfg.Panel.Rows = flagVals.Panel.Rows
		case "led-cols":
			cfg.Panel.Cols = flagVals.Panel.Cols
		case "led-chain":
			cfg.Panel.Chain = flagVals.Panel.Chain
		case "led-parallel":
			cfg.Panel.Parallel = flagVals.Panel.Parallel
		case "led-serpentine":
			cfg.Panel.Serpentine = flagVals.Panel.Serpentine
		case "led-brightness":
			cfg.Panel.Brightness = flagVals.Panel.Brightness
		case "spi-dev":
			cfg.SPI.Dev = flagVals.SPI.Dev
		case "spi-speed-hz":
			cfg.SPI.SpeedHz = flagVals.SPI.SpeedHz
		case "frames-dir":
			cfg.Frames.Dir = flagVals.Frames.Dir
		case "frames-ext":
			cfg.Frames.Ext = flagVals.Frames.Ext
		case "frame-interval":
			cfg.Frames.IntervalMs = flagVals.Frames.IntervalMs
		case "loop":
			cfg.Frames.Loop = flagVals.Frames.Loop
		case "watch":
			cfg.Frames.Watch = flagVals.Frames.Watch
		case "addr":
			cfg.Web.Addr = flagVals.Web.Addr
		case "no-web":
			cfg.Web.Disabled = flagVals.Web.Disabled
		case "drop-privileges":
			cfg.DropPrivileges = flagVals.DropPrivileges
		case "drop-user":
			cfg.DropUser = flagVals.DropUser
		case "log-level":
			cfg.LogLevel = flagVals.LogLevel
		}
	})
}
