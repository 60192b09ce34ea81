package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/galaxygroups/internal/config"
	"github.com/banshee-data/galaxygroups/internal/db"
	"github.com/banshee-data/galaxygroups/internal/fof"
	"github.com/banshee-data/galaxygroups/internal/monitoring"
	"github.com/banshee-data/galaxygroups/internal/trial"
)

type runOptions struct {
	configPath  string
	catalogPath string
	trialName   string
	progress    string
	seed        uint64
	out         string
	dbPath      string
}

func addInputFlags(cmd *cobra.Command, configPath, catalogPath, out, dbPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", "", "run config (.json, .yaml or .yml)")
	cmd.Flags().StringVar(catalogPath, "catalog", "", "catalog CSV with a header row")
	cmd.Flags().StringVarP(out, "out", "o", "-", "assignments CSV path, - for stdout")
	cmd.Flags().StringVar(dbPath, "db", "", "sqlite results database (overrides the config)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("catalog")
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one trial over a catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrial(cmd, opts)
		},
	}
	addInputFlags(cmd, &opts.configPath, &opts.catalogPath, &opts.out, &opts.dbPath)
	cmd.Flags().StringVar(&opts.trialName, "trial", "", "configured trial to run (default: the first)")
	cmd.Flags().StringVar(&opts.progress, "progress", string(fof.ModeSingleTrial), "progress mode: single_trial or debug")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (default: the config's experiment seed)")
	return cmd
}

func selectTrial(cfg *config.RunConfig, name string) (config.TrialConfig, error) {
	if name == "" {
		return cfg.Trials[0], nil
	}
	for _, t := range cfg.Trials {
		if t.Name == name {
			return t, nil
		}
	}
	return config.TrialConfig{}, fmt.Errorf("no trial named %q in config", name)
}

func runTrial(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	mode, err := fof.ParseProgressMode(opts.progress)
	if err != nil {
		return err
	}
	progress, err := fof.NewProgress(mode, nil, "")
	if err != nil {
		return err
	}
	tc, err := selectTrial(cfg, opts.trialName)
	if err != nil {
		return err
	}

	s, err := loadSurvey(opts.catalogPath, cfg)
	if err != nil {
		return err
	}
	t, err := trial.New(s, tc.Args(), tc.TrialOptions()...)
	if err != nil {
		return err
	}

	seed := cfg.Experiment.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.seed
	}
	start := time.Now()
	groups, err := t.Run(ctx, trial.Seeded(seed), progress)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	monitoring.Logf("[Run] %s: %d groups from %d galaxies in %s", t.Name(), len(groups), s.Len(), elapsed.Round(time.Millisecond))

	w, closeOut, err := openOutput(opts.out, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := writeAssignments(w, memberLists(groups)); err != nil {
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
	_, err = db.NewRunManager(store, s).Record(ctx, db.TrialRun{
		Settings: t.Settings(),
		Seed:     seed,
		Groups:   groups,
		Duration: elapsed,
	})
	return err
}
