package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"qcgen/adapters/excel"
	"qcgen/adapters/report"
	"qcgen/adapters/sink"
	"qcgen/adapters/westgard"
	"qcgen/app"
	"qcgen/domain/qc"
	"qcgen/internal/errors"
	"qcgen/ports"
	"qcgen/ui"
)

// runFlags are the parameter flags shared by every generating command
type runFlags struct {
	preset       string
	target       string
	cvPercent    string
	bias         string
	drift        string
	points       string
	distribution string
	rules        string
	seed         string
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.preset, "preset", "", "Named preset to start from")
	flags.StringVar(&f.target, "target", "", "Target mean (default from QC_DEFAULT_TARGET)")
	flags.StringVar(&f.cvPercent, "cv-percent", "", "Coefficient of variation in percent")
	flags.StringVar(&f.bias, "bias", "", "Constant offset added to the target")
	flags.StringVar(&f.drift, "drift", "", "Per-point trend, between -1 and 1")
	flags.StringVar(&f.points, "points", "", "Number of points")
	flags.StringVar(&f.distribution, "distribution", "", "Normal or LogNormal")
	flags.StringVar(&f.rules, "rules", "all", "Comma-separated rules to evaluate, all or none")
	flags.StringVar(&f.seed, "seed", "", "Seed for a reproducible sequence")
}

// params resolves defaults, then the preset, then explicit flags. cmd may be
// nil when the flags were filled in directly.
func (f *runFlags) params(cmd *cobra.Command, e *env) (qc.Params, qc.RuleSet, error) {
	defaults := e.config.DefaultParams()
	rulesFallback := f.rules
	explicitRules := cmd != nil && cmd.Flags().Changed("rules")
	if f.preset != "" {
		preset, err := e.presets.Get(f.preset)
		if err != nil {
			return qc.Params{}, 0, err
		}
		if defaults, err = preset.Params(defaults.NumPoints, e.config.QC.LenientDistribution); err != nil {
			return qc.Params{}, 0, err
		}
		if preset.Rules != "" && !explicitRules {
			rulesFallback = preset.Rules
		}
	}

	values := url.Values{}
	set := func(name, v string) {
		if v != "" {
			values.Set(name, v)
		}
	}
	set(ui.FieldTarget, f.target)
	set(ui.FieldCVPercent, f.cvPercent)
	set(ui.FieldBias, f.bias)
	set(ui.FieldDrift, f.drift)
	set(ui.FieldPoints, f.points)
	set(ui.FieldDistribution, f.distribution)
	set(ui.FieldSeed, f.seed)
	values.Set(ui.FieldRules, rulesFallback)

	return ui.ParseForm(values, defaults, e.config.QC.LenientDistribution)
}

func (f *runFlags) run(cmd *cobra.Command, e *env) (*qc.Run, error) {
	p, rules, err := f.params(cmd, e)
	if err != nil {
		return nil, err
	}
	return e.qc.Run(cmd.Context(), p, rules)
}

func newGenerateCmd(e *env) *cobra.Command {
	var flags runFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a QC sequence and evaluate the Westgard rules",
		Long: `Generate a synthetic QC sequence and print one value per line, followed by the rule summary.

Example: qcgen generate --target 100 --cv-percent 2 --bias 1.5 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := flags.run(cmd, e)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, run)
			}
			for _, line := range sink.FormatLines(run.Values) {
				fmt.Fprintln(out, line)
			}
			printReport(out, run.Report)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the whole run as JSON")
	return cmd
}

func newEvaluateCmd(e *env) *cobra.Command {
	var file, target, sd, rules string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate Westgard rules over a CSV or XLSX sequence",
		Long: `Read (day, value) rows from a CSV or XLSX file and evaluate the enabled rules.

Example: qcgen evaluate --file qc_data.csv --target 100 --sd 2 --rules 1-3s,2-2s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := excel.NewDataReader(file).ReadSequence()
			if err != nil {
				return err
			}
			t, err := parseFloatFlag("target", target)
			if err != nil {
				return err
			}
			s, err := parseFloatFlag("sd", sd)
			if err != nil {
				return err
			}
			if !(s > 0) || math.IsInf(s, 0) {
				return errors.InvalidParameter("sd", "must be a finite positive number, got %v", s)
			}
			enabled, err := qc.ParseRuleSet(rules)
			if err != nil {
				return err
			}

			r := e.qc.Evaluate(values, t, s, enabled)
			printReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV or XLSX file with Day and QC_Value columns")
	cmd.Flags().StringVar(&target, "target", "", "Target mean")
	cmd.Flags().StringVar(&sd, "sd", "", "Standard deviation")
	cmd.Flags().StringVar(&rules, "rules", "all", "Comma-separated rules to evaluate, all or none")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("sd")
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	var flags runFlags
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate a sequence and export it as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var exporter ports.Exporter
			switch strings.ToLower(format) {
			case "csv":
				exporter = excel.NewCSVExporter()
			case "xlsx":
				exporter = excel.NewXLSXExporter()
			default:
				return errors.InvalidParameter("format", "must be csv or xlsx, got %q", format)
			}

			run, err := flags.run(cmd, e)
			if err != nil {
				return err
			}
			if out == "" {
				out = "qc_data_" + run.GeneratedAt.Format("20060102_150405") + exporter.Extension()
			}
			if err := writeExport(out, exporter, run.Values); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d values to %s\n", len(run.Values), out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default qc_data_<timestamp>.<ext>)")
	return cmd
}

func newReportCmd(e *env) *cobra.Command {
	var flags runFlags
	var markdown bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a run and print an HTML or markdown report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := flags.run(cmd, e)
			if err != nil {
				return err
			}
			if markdown {
				_, err = io.WriteString(cmd.OutOrStdout(), report.Markdown(run))
			} else {
				_, err = cmd.OutOrStdout().Write(report.HTML(run))
			}
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print markdown instead of HTML")
	return cmd
}

func newTypeCmd(e *env) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "type",
		Short: "Generate a sequence and type it out one value per line",
		Long: `Generate a sequence and write each value followed by a newline, pausing
TYPE_START_DELAY before the first value and TYPE_KEY_DELAY between values.
Interrupt with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			p, rules, err := flags.params(cmd, e)
			if err != nil {
				return err
			}
			typing := e.config.Typing
			_, err = e.qc.Deliver(ctx, p, rules, sink.NewTextSink(cmd.OutOrStdout(), typing.StartDelay, typing.KeyDelay))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newSimulateCmd(e *env) *cobra.Command {
	var flags runFlags
	var runs, workers int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate per-rule rejection rates over many replicate runs",
		Long: `Generate many independent sequences at fixed parameters and report how often
each rule rejects.

Example: qcgen simulate --runs 10000 --bias 2 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, rules, err := flags.params(cmd, e)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result, err := e.simulator.Simulate(ctx, app.SimulationRequest{
				Params:  p,
				Enabled: rules,
				Runs:    runs,
				Seed:    p.Seed,
				Workers: workers,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			fmt.Fprintf(out, "Runs: %d  Seed: %d\n", result.Runs, result.Seed)
			for _, rate := range result.Rates {
				if !rate.Enabled {
					fmt.Fprintf(out, "  %-5s disabled\n", rate.Rule)
					continue
				}
				fmt.Fprintf(out, "  %-5s %6d  %.4f\n", rate.Rule, rate.Rejections, rate.Rate)
			}
			fmt.Fprintf(out, "  any   %6d  %.4f\n", result.AnyRejections, result.AnyRate)
			fmt.Fprintf(out, "Mean of means: %.4f  SD of means: %.4f\n", result.MeanOfMeans, result.SDOfMeans)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&runs, "runs", 1000, "Number of replicate runs")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent workers (default SIM_MAX_WORKERS or GOMAXPROCS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newPresetsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, p := range e.presets.List() {
				fmt.Fprintf(out, "%-12s target=%g cv=%g%% bias=%g drift=%g %s  %s\n",
					p.Name, p.Target, p.CVPercent, p.Bias, p.DriftRate, p.Distribution, p.Description)
			}
			return nil
		},
	}
}

func printReport(w io.Writer, r qc.Report) {
	fmt.Fprintln(w)
	for _, rule := range westgard.Rules() {
		status := "pass"
		switch {
		case !r.Enabled.Enabled(rule.ID):
			status = "disabled"
		case r.Violated(rule.ID):
			status = "VIOLATED"
		}
		fmt.Fprintf(w, "%-5s %s\n", rule.ID, status)
	}
	s := r.Stats
	fmt.Fprintf(w, "Mean: %s  SD: %s  CV: %s%%\n", report.FormatStat(s.Mean), report.FormatStat(s.SD), report.FormatStat(s.CVPercent))
	if r.AnyViolated {
		fmt.Fprintln(w, "Warning: Rules Violated!")
	} else {
		fmt.Fprintln(w, "All Rules Passed.")
	}
}

// writeExport writes values to path, removing the file when anything fails
func writeExport(path string, exporter ports.Exporter, values []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create export file")
	}
	if err := exporter.Export(f, values); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "failed to close %s", path)
	}
	return nil
}

func parseFloatFlag(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errors.ParseFailure(name, raw, err)
	}
	return v, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
