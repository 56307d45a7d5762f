package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/san-kum/gompertz/internal/config"
	"github.com/san-kum/gompertz/internal/experiment"
	"github.com/san-kum/gompertz/internal/logger"
	"github.com/san-kum/gompertz/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	configFile string
	preset     string
	dataDir    string
	runsDir    string
	figureDir  string
	figFormat  string
	logFile    string
	debug      bool
	noFigures  bool
	noSave     bool

	// newton
	tolerance       float64
	maxIterations   int
	includeSentinel bool
	gridStart       bool

	// fit, compare, batch
	integrator string
	alpha      float64
	aicPenalty string
	logScale   bool
	workers    int

	// show
	asJSON bool
)

var (
	cfg     *config.Config
	runner  *experiment.Runner
	cleanup func() error
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "gompertz",
		Short:             "Gompertz growth models with nonlinear carrying capacity",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cleanup != nil {
				return cleanup()
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a named preset")
	pf.StringVar(&dataDir, "data", "data", "directory holding the specimen CSV files")
	pf.StringVar(&runsDir, "runs", "runs", "directory for stored runs")
	pf.StringVar(&figureDir, "figures", "figures", "directory for figures")
	pf.StringVar(&figFormat, "format", "png", "figure file format (png, svg, pdf)")
	pf.StringVar(&logFile, "log-file", "", "write JSON logs to this file instead of stderr")
	pf.BoolVar(&debug, "debug", false, "debug logging")
	pf.BoolVar(&noFigures, "no-figures", false, "skip writing figures")
	pf.BoolVar(&noSave, "no-save", false, "do not store fit runs")

	equilibriumCmd := &cobra.Command{
		Use:       "equilibrium [case]...",
		Short:     "locate equilibria and integrate trajectories for the growth-limiting cases",
		ValidArgs: config.CaseNames(),
		Args:      cobra.OnlyValidArgs,
		RunE:      runEquilibrium,
	}

	ratesCmd := &cobra.Command{
		Use:   "rates [specimen]",
		Short: "per-capita growth rates by forward differences",
		Args:  cobra.ExactArgs(1),
		RunE:  runRates,
	}
	ratesCmd.Flags().BoolVar(&includeSentinel, "include-sentinel", true, "pair the last volume with the padded zero rate")

	newtonCmd := &cobra.Command{
		Use:   "newton [specimen]",
		Short: "fit the rate model by Newton-Raphson",
		Args:  cobra.ExactArgs(1),
		RunE:  runNewton,
	}
	newtonCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "stop when the objective changes by less than this")
	newtonCmd.Flags().IntVar(&maxIterations, "max-iter", config.DefaultMaxIterations, "iteration limit")
	newtonCmd.Flags().BoolVar(&includeSentinel, "include-sentinel", true, "pair the last volume with the padded zero rate")
	newtonCmd.Flags().Float64Var(&alpha, "alpha", config.DefaultAlpha, "significance level of the intervals")
	newtonCmd.Flags().BoolVar(&gridStart, "search", false, "pick the starting point from the configured grid")

	fitCmd := &cobra.Command{
		Use:   "fit [specimen]",
		Short: "fit the implicit and explicit ODE models",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().BoolVar(&logScale, "log", false, "fit log10 of the volumes")
	addODEFlags(fitCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [specimen]",
		Short: "compare both ODE models by AIC on raw and log10 scales",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompare,
	}
	addODEFlags(compareCmd)

	batchCmd := &cobra.Command{
		Use:   "batch [specimen]...",
		Short: "run every analysis for several specimens concurrently",
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&workers, "workers", 0, "concurrent specimens (0 = GOMAXPROCS)")
	addODEFlags(batchCmd)

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "browse stored runs interactively",
		RunE:  browseRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "gompertz.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	rootCmd.AddCommand(equilibriumCmd, ratesCmd, newtonCmd, fitCmd, compareCmd, batchCmd,
		runsCmd, showCmd, browseCmd, presetsCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addODEFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator for the implicit model (euler, rk4, rk45)")
	cmd.Flags().Float64Var(&alpha, "alpha", config.DefaultAlpha, "significance level of the intervals")
	cmd.Flags().StringVar(&aicPenalty, "aic-penalty", "fixed", "AIC penalty: fixed (k = 2) or count (parameters + 1)")
	cmd.Flags().BoolVar(&includeSentinel, "include-sentinel", true, "pair the last volume with the padded zero rate")
}

// setup resolves the configuration (preset, file, environment, flags in that
// order), installs the logger and builds the runner.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	env, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	cfg.ApplyEnv(env)
	applyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if logFile != "" {
		cfg.Log.File = logFile
	}
	cleanup, err = logger.Setup(logger.Config{File: cfg.Log.File, Level: cfg.Log.Level, Debug: debug})
	if err != nil {
		return err
	}
	l := logger.L()
	l.Debug("configuration resolved", "preset", preset, "config", configFile,
		"data", cfg.Data.Dir, "runs", cfg.Output.RunsDir)

	runner, err = experiment.New(cfg, l)
	if err != nil {
		return err
	}
	if !env.OTelEnabled {
		return nil
	}
	meter, err := telemetry.NewExporter(cmd.Context(), env.Telemetry())
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	runner.Metrics = meter
	closeLog := cleanup
	cleanup = func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meter.Close(ctx); err != nil {
			l.Warn("telemetry shutdown", "error", err)
		}
		return closeLog()
	}
	return nil
}

func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Dir = dataDir
	}
	if flags.Changed("runs") {
		cfg.Output.RunsDir = runsDir
	}
	if flags.Changed("figures") {
		cfg.Output.FigureDir = figureDir
	}
	if flags.Changed("format") {
		cfg.Output.Format = figFormat
	}
	if noFigures {
		cfg.Output.Figures = false
	}
	if flags.Changed("tol") {
		cfg.Newton.Tolerance = tolerance
	}
	if flags.Changed("max-iter") {
		cfg.Newton.MaxIterations = maxIterations
	}
	if flags.Changed("include-sentinel") {
		cfg.Newton.IncludeSentinel = includeSentinel
	}
	if flags.Changed("alpha") {
		cfg.Newton.Alpha = alpha
		cfg.ODEFit.Alpha = alpha
	}
	if flags.Changed("search") {
		cfg.Newton.Search.Enabled = gridStart
	}
	if flags.Changed("integrator") {
		cfg.ODEFit.Integrator = integrator
	}
	if flags.Changed("aic-penalty") {
		cfg.ODEFit.AICPenalty = aicPenalty
	}
}

func settings() map[string]string {
	return map[string]string{
		"preset":           preset,
		"integrator":       cfg.ODEFit.Integrator,
		"aic_penalty":      cfg.ODEFit.AICPenalty,
		"include_sentinel": fmt.Sprint(cfg.Newton.IncludeSentinel),
		"newton_tolerance": fmt.Sprint(cfg.Newton.Tolerance),
	}
}
