package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/galaxygroups/internal/config"
	"github.com/banshee-data/galaxygroups/internal/db"
	"github.com/banshee-data/galaxygroups/internal/experiment"
	"github.com/banshee-data/galaxygroups/internal/monitoring"
)

type experimentOptions struct {
	configPath  string
	catalogPath string
	out         string
	dbPath      string
	cutoff      float64
	concurrency int
}

func newExperimentCmd() *cobra.Command {
	opts := &experimentOptions{}
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Run every configured trial and integrate their groups",
		Long: `Runs all trials in the config concurrently over the same catalog, then
links galaxies that share a group in at least --cutoff of the trials. The
connected components of those links are written as the integrated groups.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(cmd, opts)
		},
	}
	addInputFlags(cmd, &opts.configPath, &opts.catalogPath, &opts.out, &opts.dbPath)
	cmd.Flags().Float64Var(&opts.cutoff, "cutoff", 0, "co-membership fraction that links two galaxies (default: the config's)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "trials run at once (default: the config's, then GOMAXPROCS)")
	return cmd
}

func runExperiment(cmd *cobra.Command, opts *experimentOptions) error {
	ctx := cmd.Context()
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("cutoff") {
		cfg.Experiment.Cutoff = opts.cutoff
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Experiment.Concurrency = opts.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := loadSurvey(opts.catalogPath, cfg)
	if err != nil {
		return err
	}
	trials, err := cfg.NewTrials(s)
	if err != nil {
		return err
	}
	e, err := experiment.New(trials, experiment.Config{
		Seed:        cfg.Experiment.Seed,
		Concurrency: cfg.Experiment.Concurrency,
	})
	if err != nil {
		return err
	}

	results, err := e.Run(ctx)
	if err != nil {
		return err
	}
	summary := experiment.Summarize(results)
	monitoring.Logf("[Experiment] %d trials: %.1f ± %.1f groups, %.1f non-converged on average",
		summary.Trials, summary.GroupCountMean, summary.GroupCountStdDev, summary.NonConvergedMean)

	integrated, err := experiment.IntegrateGroups(results, s.Len(), cfg.Experiment.GetCutoff())
	if err != nil {
		return err
	}
	monitoring.Logf("[Experiment] %d integrated groups at cutoff %.2f", len(integrated), cfg.Experiment.GetCutoff())

	w, closeOut, err := openOutput(opts.out, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := writeAssignments(w, integrated); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}

	dbPath := opts.dbPath
	if dbPath == "" {
		dbPath = cfg.Database
	}
	if dbPath == "" {
		return nil
	}
	store, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	manager := db.NewRunManager(store, s)
	for _, r := range results {
		if _, err := manager.Record(ctx, db.TrialRun{
			Settings: r.Settings,
			Seed:     r.Seed,
			Groups:   r.Groups,
			Duration: r.Duration,
		}); err != nil {
			return err
		}
	}
	return nil
}
