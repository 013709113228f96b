package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"powerflow"
	"powerflow/cases"
	"powerflow/config"
	"powerflow/debug"
	"powerflow/types"

	"github.com/spf13/cobra"
)

// version 发布时通过 -ldflags 注入
var version = "dev"

// solveOptions solve 子命令参数
type solveOptions struct {
	caseName      string
	method        string
	factorization string
	limits        bool
	qLimitMode    string
	tolerance     float64
	maxIterations int
	configPath    string
	jsonOutput    bool
	chartPath     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "powerflow",
		Short:        "Steady-state AC/DC power flow for transmission networks",
		SilenceUsage: true,
	}

	var opts solveOptions
	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a built-in case",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, opts)
		},
	}
	solveCmd.Flags().StringVar(&opts.caseName, "case", "case14", "Built-in case name")
	solveCmd.Flags().StringVar(&opts.method, "method", "nr", "Method: nr, fdxb, fdbx, gs, dc")
	solveCmd.Flags().StringVar(&opts.factorization, "factorization", "", "LU backend: markowitz, dense, sparse, gonum")
	solveCmd.Flags().BoolVar(&opts.limits, "limits", false, "Enforce generator reactive limits")
	solveCmd.Flags().StringVar(&opts.qLimitMode, "q-limit-mode", "", "Reactive limit mode: one, all")
	solveCmd.Flags().Float64Var(&opts.tolerance, "tolerance", 0, "Mismatch tolerance (p.u.)")
	solveCmd.Flags().IntVar(&opts.maxIterations, "max-iterations", 0, "Iteration cap, 0 uses the method default")
	solveCmd.Flags().StringVar(&opts.configPath, "config", "", "Config file path")
	solveCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	solveCmd.Flags().StringVar(&opts.chartPath, "chart", "", "Write a convergence chart (svg, png, pdf, eps)")

	casesCmd := &cobra.Command{
		Use:   "cases",
		Short: "List built-in cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBUSES\tBRANCHES\tGENERATORS")
			for _, name := range cases.Names() {
				sys, err := cases.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", name, len(sys.Buses), len(sys.Branches), len(sys.Generators))
			}
			return w.Flush()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "powerflow %s\n", version)
		},
	}

	rootCmd.AddCommand(solveCmd, casesCmd, versionCmd)
	return rootCmd
}

// loadConfig 读取配置文件，命令行参数优先
func loadConfig(cmd *cobra.Command, opts solveOptions) (types.Config, error) {
	f, err := config.Read(opts.configPath)
	if err != nil {
		return types.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("factorization") {
		f.Solver.Factorization = opts.factorization
	}
	if flags.Changed("q-limit-mode") {
		f.Solver.QLimitMode = opts.qLimitMode
	}
	if flags.Changed("tolerance") {
		f.Solver.Tolerance = opts.tolerance
	}
	if flags.Changed("max-iterations") {
		f.Solver.MaxIterations = opts.maxIterations
	}
	cfg, err := f.Config(cmd.ErrOrStderr())
	if err != nil {
		return types.Config{}, err
	}
	for _, warning := range f.Validate() {
		cfg.Log().Warn(warning)
	}
	return cfg, nil
}

func runSolve(cmd *cobra.Command, opts solveOptions) error {
	method, err := types.ParseMethod(opts.method)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	sys, err := cases.Get(opts.caseName)
	if err != nil {
		return err
	}
	var charts *debug.Charts
	if opts.chartPath != "" {
		charts = &debug.Charts{Format: strings.TrimPrefix(filepath.Ext(opts.chartPath), ".")}
		cfg.Debug = charts
	}

	pf, err := powerflow.New(sys, cfg)
	if err != nil {
		return err
	}
	var res *powerflow.Result
	if opts.limits {
		res, err = pf.SolveWithLimits(method)
	} else {
		res, err = pf.Solve(method)
	}
	if err != nil {
		return err
	}
	if charts != nil {
		if err := writeChart(opts.chartPath, charts); err != nil {
			return err
		}
	}
	if !res.Converged() {
		return fmt.Errorf("%s did not converge after %d iterations (mismatch P %.3g, Q %.3g)",
			method, res.Report.Iterations, res.Report.Active, res.Report.Reactive)
	}
	powers, err := pf.Powers()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Case       string `json:"case"`
			Iterations int    `json:"iterations"`
			Rounds     int    `json:"rounds"`
			Converted  []int  `json:"converted,omitempty"`
			*powerflow.Powers
		}{opts.caseName, res.Report.Iterations, res.Rounds, res.Converted, powers})
	}
	return printPowers(out, opts.caseName, res, powers, sys.BasePower)
}

func writeChart(path string, charts *debug.Charts) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return charts.Render(f)
}

// printPowers 以表格输出结果，功率换算为 MW/Mvar
func printPowers(out io.Writer, name string, res *powerflow.Result, powers *powerflow.Powers, base float64) error {
	fmt.Fprintf(out, "%s: %s converged in %d iterations", name, powers.Method, res.Report.Iterations)
	if len(res.Converted) > 0 {
		fmt.Fprintf(out, ", buses %v converted to PQ in %d rounds", res.Converted, res.Rounds)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "BUS\tV (p.u.)\tANGLE (deg)\tP (MW)\tQ (Mvar)\t")
	for _, bus := range powers.Buses {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.2f\t%.2f\t\n",
			bus.ID, bus.Magnitude, bus.Angle*180/math.Pi, bus.Active*base, bus.Reactive*base)
	}
	fmt.Fprintln(w, "\t\t\t\t\t")
	fmt.Fprintln(w, "BRANCH\tFROM-TO\tP FROM (MW)\tQ FROM (Mvar)\tP LOSS (MW)\t")
	for _, br := range powers.Branches {
		fmt.Fprintf(w, "%d\t%d-%d\t%.2f\t%.2f\t%.3f\t\n",
			br.ID, br.From, br.To, br.FromActive*base, br.FromReactive*base, br.LossActive*base)
	}
	fmt.Fprintln(w, "\t\t\t\t\t")
	fmt.Fprintln(w, "GEN\tBUS\tP (MW)\tQ (Mvar)\t")
	for _, gen := range powers.Generators {
		fmt.Fprintf(w, "%d\t%d\t%.2f\t%.2f\t\n", gen.ID, gen.Bus, gen.Active*base, gen.Reactive*base)
	}
	return w.Flush()
}
