package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"planning-performance/internal/classify"
	"planning-performance/internal/config"
	"planning-performance/internal/ledger"
	"planning-performance/internal/reference"
	"planning-performance/internal/render"
	"planning-performance/internal/serve"
	"planning-performance/internal/snapshot"
)

var (
	jsonPath string
	postgres bool
	topN     int
	showAll  bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Read the reference CSVs and write the snapshot database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runLoad(cmd.Context(), cfg, logger)
		return err
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the static site from the snapshot database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd.Context(), cfg, logger)
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Load the snapshot, then render the site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := runLoad(cmd.Context(), cfg, logger); err != nil {
			return err
		}
		return runRender(cmd.Context(), cfg, logger)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the rendered site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("address"); addr != "" {
			cfg.Serve.Address = addr
		}
		return serve.Run(cmd.Context(), serve.Options{
			Address:  cfg.Serve.Address,
			Docs:     cfg.Output.Docs,
			BasePath: cfg.Output.BasePath,
			Logger:   logger,
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{loadCmd, buildCmd} {
		cmd.Flags().StringVar(&jsonPath, "json", "", "Optional path to write the load summary as JSON")
		cmd.Flags().BoolVar(&postgres, "postgres", false, "Mirror the snapshot into Postgres")
		cmd.Flags().IntVar(&topN, "top", 10, "Number of ranked organisations to display")
		cmd.Flags().BoolVar(&showAll, "all", false, "Show all ranked organisations")
	}
	serveCmd.Flags().String("address", "", "Listen address (default from config)")
}

// runLoad runs the pipeline up to the snapshot and prints the summary.
func runLoad(ctx context.Context, cfg *config.Config, logger *zap.Logger) (loadSummary, error) {
	ds, err := reference.LoadDataset(cfg.Sources(), cfg.Programme.StartDate, logger)
	if err != nil {
		return loadSummary{}, err
	}

	l := ledger.Aggregate(ds.Awards, ds.Organisations)
	logger.Info("awards aggregated", zap.Int("organisations", l.Len()), zap.Int64("total", l.Total()))

	profiles, err := classify.Classify(ds, l)
	if err != nil {
		return loadSummary{}, err
	}

	run := snapshot.NewRun(cfg.Postgres.Tag)
	run.Count(ds, profiles)

	snap, err := snapshot.Create(ctx, cfg.Output.Snapshot)
	if err != nil {
		return loadSummary{}, err
	}
	defer snap.Close()
	if err := snap.Write(ctx, ds, profiles, run); err != nil {
		return loadSummary{}, err
	}
	logger.Info("snapshot written",
		zap.String("path", snap.Path()),
		zap.String("run", run.ID.String()),
		zap.Int("organisations", run.Organisations))

	if postgres {
		if cfg.Postgres.URL == "" {
			return loadSummary{}, fmt.Errorf("postgres mirror requested but no database URL configured (set PERFORMANCE_DB_URL or DATABASE_URL)")
		}
		err := snapshot.Mirror(ctx, snapshot.MirrorConfig{DSN: cfg.Postgres.URL, Schema: cfg.Postgres.Schema}, ds, profiles, run)
		if err != nil {
			return loadSummary{}, err
		}
		logger.Info("snapshot mirrored", zap.String("schema", cfg.Postgres.Schema))
	}

	summary := summarize(run, profiles)
	printSummary(os.Stdout, summary, topN, showAll)
	if jsonPath != "" {
		if err := writeJSON(jsonPath, summary); err != nil {
			return loadSummary{}, err
		}
		fmt.Printf("\nJSON written to %s\n", jsonPath)
	}
	return summary, nil
}

func runRender(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	snap, err := snapshot.Open(ctx, cfg.Output.Snapshot)
	if err != nil {
		return err
	}
	defer snap.Close()

	r, err := render.New(snap, render.Options{
		Docs:      cfg.Output.Docs,
		BasePath:  cfg.Output.BasePath,
		ShapesMap: cfg.Inputs.ShapesMap,
		PointsMap: cfg.Inputs.PointsMap,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	return r.Render(ctx)
}
