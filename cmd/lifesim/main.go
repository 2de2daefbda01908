package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"github.com/finlife/lifesim/internal/calculation"
	"github.com/finlife/lifesim/internal/config"
	"github.com/finlife/lifesim/internal/output"
	"github.com/finlife/lifesim/internal/server"
)

var (
	verbose bool

	configPath string
	traceRun   bool
	format     string
	outputPath string

	listenAddr string

	mcTrials int
	mcSeed   int64
	mcSigma  float64
)

func newLogger() calculation.Logger {
	if !verbose {
		return calculation.NopLogger{}
	}
	return calculation.StdLogger{L: log.New(os.Stderr, "lifesim ", log.LstdFlags)}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "lifesim",
		Short: "Personal finance life simulator",
		Long: "lifesim projects a single person's finances year by year: salary, tax,\n" +
			"pension drawdown, investments and discretionary spending, scored by a\n" +
			"life satisfaction metric.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine activity to stderr")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation from a config file",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration (required)")
	runCmd.Flags().BoolVar(&traceRun, "trace", false, "include the per-phase diagnostic trace")
	runCmd.Flags().StringVarP(&format, "format", "f", "console", "output format: console, csv or json")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write output to file instead of stdout")
	_ = runCmd.MarkFlagRequired("config")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation HTTP API",
		RunE:  runServer,
	}
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", ":8080", "listen address")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "Run Monte Carlo trials with stochastic growth rates",
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration (required)")
	mcCmd.Flags().IntVar(&mcTrials, "trials", 100, "number of trials")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 1, "base random seed")
	mcCmd.Flags().Float64Var(&mcSigma, "sigma", 0.1, "stddev of the annual growth-rate draw")
	_ = mcCmd.MarkFlagRequired("config")

	exampleCmd := &cobra.Command{
		Use:   "example",
		Short: "Print an example YAML configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.ExampleYAML()
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, serveCmd, mcCmd, exampleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewParser().LoadFromFile(configPath)
	if err != nil {
		return err
	}

	engine := calculation.NewSimulationEngine(newLogger())
	result, err := engine.Run(cfg, traceRun)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "console":
		_, err = fmt.Fprint(out, output.NewConsoleFormatter().Format(result))
		return err
	case "csv":
		return output.NewCSVFormatter().Write(out, result)
	case "json":
		return output.NewJSONFormatter().Write(out, result)
	default:
		return fmt.Errorf("unknown format %q (want console, csv or json)", format)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	handler := server.NewHandler(newLogger())
	fmt.Fprintf(os.Stderr, "listening on %s\n", listenAddr)
	return fasthttp.ListenAndServe(listenAddr, handler.Route)
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewParser().LoadFromFile(configPath)
	if err != nil {
		return err
	}

	runner := &calculation.MonteCarloRunner{
		Trials: mcTrials,
		Seed:   mcSeed,
		Sigma:  mcSigma,
		Log:    newLogger(),
	}
	summary, err := runner.Run(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("monte carlo failed: %w", err)
	}

	fmt.Printf("Trials:  %d\n", len(summary.Trials))
	fmt.Printf("Mean:    %.2f\n", summary.MeanMetric)
	fmt.Printf("Median:  %.2f\n", summary.MedianMetric)
	fmt.Printf("StdDev:  %.2f\n", summary.StdDevMetric)
	fmt.Printf("Min:     %.2f\n", summary.MinMetric)
	fmt.Printf("Max:     %.2f\n", summary.MaxMetric)
	return nil
}
