package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/gompertz/internal/config"
	"github.com/san-kum/gompertz/internal/experiment"
	"github.com/san-kum/gompertz/internal/growth"
	"github.com/san-kum/gompertz/internal/logger"
	"github.com/san-kum/gompertz/internal/odefit"
	"github.com/san-kum/gompertz/internal/render"
	"github.com/san-kum/gompertz/internal/storage"
	"github.com/san-kum/gompertz/internal/tui"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

func runEquilibrium(cmd *cobra.Command, args []string) error {
	cases := args
	if len(cases) == 0 {
		cases = config.CaseNames()
	}
	for _, name := range cases {
		a, err := runner.Equilibrium(name)
		if err != nil {
			return err
		}
		fmt.Println(render.EquilibriumReport(a))
		traj := render.TrajectoryFigure(a)
		fmt.Println(render.Console(traj, cfg.Output.ChartWidth, cfg.Output.ChartHeight))
		figs := []render.Figure{render.EquilibriumFigure(a), traj}
		if name == "exponential" {
			figs = append(figs, render.FamilyFigure(runner.Family()))
		}
		if err := saveFigures(figs...); err != nil {
			return err
		}
	}
	return nil
}

func runRates(cmd *cobra.Command, args []string) error {
	s, err := runner.Series(args[0])
	if err != nil {
		return err
	}
	rs, err := runner.Rates(s)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tVOLUME\tRATE")
	times := s.Times()
	for i := 0; i < rs.Len(); i++ {
		fmt.Fprintf(w, "%g\t%.6g\t%.6g\n", times[i], rs.Volumes[i], rs.Rates[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if rs.Sentinel {
		fmt.Println(render.Warn.Render("last rate is the padded zero, not a measurement"))
	}
	return saveFigures(render.DataFigure(s), render.RatesFigure(s.Name, rs))
}

func runNewton(cmd *cobra.Command, args []string) error {
	s, err := runner.Series(args[0])
	if err != nil {
		return err
	}
	res, err := runner.Newton(cmd.Context(), s)
	if err != nil {
		return err
	}
	fmt.Println(render.FitReport("Newton rate fit, specimen "+s.Name, res))

	fit := render.FitFigure(s.Name, "Volume (x)", "1/x dx/dt", res)
	fmt.Println(render.Console(fit, cfg.Output.ChartWidth, cfg.Output.ChartHeight))

	figs := []render.Figure{fit, render.GradNormFigure(s.Name, res, cfg.Newton.Tolerance)}
	if curve, err := runner.GrowthCurve(s, res); err != nil {
		logger.L().Warn("growth curve from rate fit failed", "specimen", s.Name, "err", err)
	} else {
		figs = append(figs, render.GrowthFigure(s, res.Params, curve))
	}
	if err := saveFigures(figs...); err != nil {
		return err
	}
	return saveRuns(s.Name, res)
}

func runFit(cmd *cobra.Command, args []string) error {
	s, err := runner.Series(args[0])
	if err != nil {
		return err
	}
	models := []string{"implicit", "explicit"}
	ylabel := "Tumor size, x"
	if logScale {
		models = []string{"implicit-log10", "explicit-log10"}
		ylabel = "log10 tumor size"
	}
	var results []*growth.FitResult
	for _, m := range models {
		res, err := runner.Fit(cmd.Context(), s, m)
		if err != nil {
			return err
		}
		fmt.Println(render.FitReport(fmt.Sprintf("%s fit, specimen %s", m, s.Name), res))
		fig := render.FitFigure(s.Name, "Time, t", ylabel, res)
		fmt.Println(render.Console(fig, cfg.Output.ChartWidth, cfg.Output.ChartHeight))
		if err := saveFigures(fig); err != nil {
			return err
		}
		results = append(results, res)
	}
	return saveRuns(s.Name, results...)
}

func runCompare(cmd *cobra.Command, args []string) error {
	s, err := runner.Series(args[0])
	if err != nil {
		return err
	}
	cmps, err := runner.Compare(cmd.Context(), s)
	if err != nil {
		return err
	}
	printComparisons(s.Name, cmps)
	return nil
}

func printComparisons(name string, cmps []odefit.Comparison) {
	fmt.Println(render.ComparisonReport(name, cmps))
	for _, c := range cmps {
		fig := render.ComparisonFigure(name, c)
		fmt.Println(render.Console(fig, cfg.Output.ChartWidth, cfg.Output.ChartHeight))
		if err := saveFigures(fig); err != nil {
			logger.L().Error("saving figure failed", "figure", fig.Name, "err", err)
		}
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	specimens := args
	if len(specimens) == 0 {
		specimens = cfg.SpecimenNames()
	}
	b := &experiment.Batch{Runner: runner, Workers: workers}
	reports, err := b.Run(cmd.Context(), specimens)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIMEN\tMODEL\tPARAMS\tAIC\tR^2\tCONVERGED")
	for _, rep := range reports {
		for _, res := range rep.Fits() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%v\n",
				rep.Specimen, res.Model, res.Params, res.Stats.AIC, res.Stats.RSquared, res.Converged)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, rep := range reports {
		printComparisons(rep.Specimen, rep.Comparisons)
		figs := []render.Figure{
			render.FitFigure(rep.Specimen, "Volume (x)", "1/x dx/dt", rep.Newton),
			render.GradNormFigure(rep.Specimen, rep.Newton, cfg.Newton.Tolerance),
			render.RatesFigure(rep.Specimen, rep.Rates),
		}
		if rep.Growth != nil {
			figs = append(figs, render.GrowthFigure(rep.Series, rep.Newton.Params, rep.Growth))
		}
		if err := saveFigures(figs...); err != nil {
			return err
		}
		if err := saveRuns(rep.Specimen, rep.Fits()...); err != nil {
			return err
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store().List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSPECIMEN\tMODEL\tAIC\tR^2\tTIMESTAMP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%s\n",
			r.ID, r.Specimen, r.Model, r.Stats.AIC, r.Stats.RSquared, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := store()
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	res := storage.Result(meta, series)
	if asJSON {
		return storage.ExportJSON(os.Stdout, meta.Specimen, res)
	}
	fmt.Println(render.FitReport(meta.ID, res))
	fmt.Println(render.Console(render.FitFigure(meta.Specimen, "x", "y", res), cfg.Output.ChartWidth, cfg.Output.ChartHeight))
	for k, v := range meta.Settings {
		fmt.Println(render.Metric(k, v))
	}
	return nil
}

func browseRuns(cmd *cobra.Command, args []string) error {
	return tui.Browse(store())
}

func store() *storage.Store {
	return storage.New(cfg.Output.RunsDir)
}

func saveRuns(specimen string, results ...*growth.FitResult) error {
	if noSave {
		return nil
	}
	st := store()
	if err := st.Init(); err != nil {
		return err
	}
	for _, res := range results {
		id, err := st.Save(specimen, res, settings())
		if err != nil {
			return err
		}
		fmt.Println(render.Subtle.Render("run id: " + id))
	}
	return nil
}

func saveFigures(figs ...render.Figure) error {
	if !cfg.Output.Figures {
		return nil
	}
	for _, f := range figs {
		path, err := render.Save(f, cfg.Output.FigureDir, cfg.Output.Format, 6*vg.Inch, 4*vg.Inch)
		if err != nil {
			return fmt.Errorf("figure %s: %w", f.Name, err)
		}
		logger.L().Debug("figure written", "path", path)
	}
	return nil
}
