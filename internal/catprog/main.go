// Public domain.

// Package catprog is the mosaiccat command.
package catprog

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soniakeys/exit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soniakeys/mosaiccat/internal/config"
	"github.com/soniakeys/mosaiccat/internal/fitscat"
	"github.com/soniakeys/mosaiccat/internal/logging"
	"github.com/soniakeys/mosaiccat/internal/metrics"
	"github.com/soniakeys/mosaiccat/internal/pipeline"
)

const version = "0.1"
const versionTemplate = "mosaiccat version {{.Version}} Go source.\n"
const copyrightString = "Public domain."

// Main runs the command.  Fatal errors are logged and end the process
// with a non-zero status.
func Main() {
	defer exit.Handler()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := NewCommand(viper.New()).ExecuteContext(ctx); err != nil {
		exit.Log(err)
	}
}

// flag names and the configuration keys they set.
var flagKeys = map[string]string{
	"mosdirectories":   "mosaic_dirs",
	"pointdirectories": "pointing_dirs",
	"out":              "out_dir",
	"release":          "release",
	"glob":             "catalog_glob",
	"components":       "components",
	"seed":             "seed",
	"metrics-file":     "metrics_file",
	"image-stats":      "image_stats",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

// NewCommand returns the root command reading configuration into v.
func NewCommand(v *viper.Viper) *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "mosaiccat --mosdirectories DIR... [--pointdirectories DIR...]",
		Short: "Merge mosaic source catalogs into a deduplicated master catalog",
		Long: `mosaiccat assigns each source of overlapping mosaic catalogs to the
single mosaic whose pointing center is nearest, rewrites the kept sources
with survey names and total errors, and concatenates the results into
master catalogs.

` + copyrightString,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}
	cmd.SetVersionTemplate(versionTemplate)
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML config file")
	f.StringSlice("mosdirectories", nil, "mosaic directories holding catalogs")
	f.StringSlice("pointdirectories", nil, "pointing directories holding astrometric error maps")
	f.String("out", ".", "output directory")
	f.String("release", "", "name of the master catalogs")
	f.String("glob", "", "source list file pattern within mosaic directories")
	f.Bool("components", true, "also build component catalogs")
	f.Uint64("seed", 0, "processing order seed, 0 for random")
	f.String("metrics-file", "", "write Prometheus metrics to this file")
	f.Bool("image-stats", false, "measure background noise of each pointing image")
	f.String("log-level", "", "log level")
	f.String("log-format", "", "log format: auto, console or json")
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	rc := pipeline.NewRunContext(cfg, wd, fitscat.Store{}, m, log)
	rc.Out = cmd.OutOrStdout()
	rc.Log.Info().Strs("mosaic_dirs", cfg.MosaicDirs).Uint64("seed", rc.Seed).
		Str("release", cfg.Release).Msg("run started")
	res, err := pipeline.Run(cmd.Context(), rc)
	if err != nil {
		return err
	}
	rc.Log.Info().Int("pointings", len(res.Manifest.Order)).Msg("run complete")
	return nil
}
