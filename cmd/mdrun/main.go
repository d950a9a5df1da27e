package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/deepnoodle-ai/mdrun"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// CLI configuration
type Config struct {
	ProtocolFile   string
	ExpressionFile string
	EngineFile     string
	RunDir         string
	Variables      map[string]interface{}
	Timeout        time.Duration
	MaxIterations  int
	Verbose        bool
	JSON           bool
}

func main() {
	config := parseFlags()

	if config.ProtocolFile == "" {
		color.Red("Error: protocol file is required")
		flag.Usage()
		os.Exit(1)
	}
	if config.ExpressionFile == "" {
		color.Red("Error: energy expression file is required")
		flag.Usage()
		os.Exit(1)
	}

	logger := setupLogger(config)

	color.Blue("Loading protocol from: %s", config.ProtocolFile)
	protocol, err := mdrun.LoadProtocolFile(config.ProtocolFile)
	if err != nil {
		log.Fatalf("Failed to load protocol: %v", err)
	}
	color.Cyan("Protocol: %s (%d segments)", protocol.Name(), len(protocol.Segments()))

	expression, err := mdrun.LoadExpressionFile(config.ExpressionFile)
	if err != nil {
		log.Fatalf("Failed to load energy expression: %v", err)
	}
	color.White("Structure: %d atoms", expression.NAtoms())

	// Extra variables given on the command line override the protocol's.
	if len(config.Variables) > 0 {
		for k, v := range config.Variables {
			protocol.Variables()[k] = v
		}
	}

	engine, err := loadEngineConfig(config.EngineFile)
	if err != nil {
		log.Fatalf("Failed to load engine configuration: %v", err)
	}

	store, err := mdrun.NewStore(config.RunDir, logger)
	if err != nil {
		log.Fatalf("Failed to create run directory: %v", err)
	}
	color.Blue("Run directory: %s", store.Dir())

	runner, err := mdrun.NewRunner(mdrun.RunnerOptions{
		Protocol:      protocol,
		Expression:    expression,
		Executor:      mdrun.NewLocalExecutor(logger),
		Store:         store,
		Engine:        engine,
		Logger:        logger,
		Callbacks:     &progressCallbacks{},
		MaxIterations: config.MaxIterations,
	})
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}

	ctx := context.Background()
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
		color.Yellow("Timeout: %v", config.Timeout)
	}

	color.Green("Starting run...\n")
	startTime := time.Now()
	report, err := runner.Run(ctx)
	duration := time.Since(startTime)

	showResults(report, err, duration, config)
}

func parseFlags() *Config {
	config := &Config{
		Variables: make(map[string]interface{}),
	}

	flag.StringVar(&config.ProtocolFile, "protocol", "", "Path to the YAML protocol definition file (required)")
	flag.StringVar(&config.ProtocolFile, "p", "", "Path to the YAML protocol definition file (shorthand)")

	flag.StringVar(&config.ExpressionFile, "structure", "", "Path to the JSON energy expression file (required)")
	flag.StringVar(&config.ExpressionFile, "s", "", "Path to the JSON energy expression file (shorthand)")

	flag.StringVar(&config.EngineFile, "engine", "", "Path to the YAML engine configuration file (optional)")
	flag.StringVar(&config.RunDir, "dir", "", "Run directory for all artifacts (default: fresh directory named by run ID)")
	flag.StringVar(&config.RunDir, "d", "", "Run directory (shorthand)")

	var varFlags stringSlice
	flag.Var(&varFlags, "var", "Protocol variable in format key=value (can be used multiple times)")

	flag.DurationVar(&config.Timeout, "timeout", 0, "Run timeout (e.g., 30m, 2h)")
	flag.DurationVar(&config.Timeout, "t", 0, "Run timeout (shorthand)")

	flag.IntVar(&config.MaxIterations, "max-iterations", 0, "Per-segment convergence iteration limit (0 = default, negative = unbounded)")

	flag.BoolVar(&config.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&config.Verbose, "v", false, "Enable verbose logging (shorthand)")

	flag.BoolVar(&config.JSON, "json", false, "Output the report in JSON format")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `mdrun - Convergence-controlled molecular dynamics driver

Usage: %s [options] -protocol <protocol.yaml> -structure <system.json>

Examples:
  # Run a protocol against a structure
  %s -protocol npt.yaml -structure water.json

  # Run with a custom engine configuration and variables
  %s -protocol npt.yaml -structure water.json -engine engine.yaml -var T=350

Options:
`, os.Args[0], os.Args[0], os.Args[0])
		flag.PrintDefaults()

		fmt.Fprintf(os.Stderr, `
Variable Format:
  Use -var key=value for each protocol variable.
  Values are parsed as JSON if possible, otherwise as strings.

`)
	}

	flag.Parse()

	for _, v := range varFlags {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 {
			fmt.Fprintf(os.Stderr, "Error: invalid variable format '%s'. Use key=value\n", v)
			os.Exit(1)
		}
		key, value := parts[0], parts[1]
		var parsedValue interface{}
		if err := json.Unmarshal([]byte(value), &parsedValue); err != nil {
			parsedValue = value
		}
		config.Variables[key] = parsedValue
	}

	return config
}

// progressCallbacks prints colorized run progress.
type progressCallbacks struct {
	mdrun.BaseRunCallbacks
}

func (p *progressCallbacks) BeforeEngineRun(ctx context.Context, event *mdrun.EngineRunEvent) {
	color.Blue("Running %s (iteration %d): %s", event.ChainID, event.Iteration, strings.Join(event.Command, " "))
}

func (p *progressCallbacks) AfterEngineRun(ctx context.Context, event *mdrun.EngineRunEvent) {
	if event.Error != nil {
		color.Red("Engine run %s failed: %v", event.ChainID, event.Error)
	}
}

func (p *progressCallbacks) AfterPropertyAnalysis(ctx context.Context, event *mdrun.PropertyAnalysisEvent) {
	status := color.GreenString("converged")
	if !event.Result.Converged() {
		status = color.YellowString("not converged")
	}
	color.White("  %s: %.4g ± %.2g (%s)", event.Property, event.Result.Mean, event.Result.StdErr, status)
}

// Custom flag type for handling multiple variable values
type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func setupLogger(config *Config) *slog.Logger {
	level := slog.LevelWarn
	if config.Verbose {
		level = slog.LevelDebug
	}
	if config.JSON {
		return mdrun.NewJSONLogger(level)
	}
	return mdrun.NewLogger(level)
}

func loadEngineConfig(path string) (mdrun.EngineConfig, error) {
	engine := mdrun.DefaultEngineConfig()
	if path == "" {
		return engine, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine, err
	}
	if err := yaml.Unmarshal(data, &engine); err != nil {
		return engine, fmt.Errorf("invalid engine configuration %s: %w", path, err)
	}
	return engine, nil
}

func showResults(report *mdrun.RunReport, runErr error, duration time.Duration, config *Config) {
	if runErr != nil {
		color.Red("\nRun failed after %v: %v", duration.Round(time.Millisecond), runErr)
		if errType := mdrun.ErrorType(runErr); errType != "" {
			color.Red("Error type: %s", errType)
		}
		os.Exit(1)
	}

	color.Green("\nRun completed in %v", duration.Round(time.Millisecond))

	if config.JSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode report: %v", err)
		}
		fmt.Println(string(data))
		return
	}
	fmt.Println()
	fmt.Print(mdrun.FormatReport(report))
}
