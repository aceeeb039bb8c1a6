package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/iulianpascalau/air-quality-fetcher/commonGo"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/aggregator"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/cleaner"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/config"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/coverage"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/factory"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/output"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	defaultLogsPath      = "logs"
	logFilePrefix        = "fetcher"
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging commonGo.FileLoggingHandler

var (
	fetcherHelpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
COMMANDS:
   {{range .Commands}}{{join .Names ", "}}{{ "\t" }}{{.Usage}}
   {{end}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
VERSION:
   {{.Version}}
   {{end}}
`

	log = logger.GetOrCreate("fetcher")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,poller:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the poller package which will receive a DEBUG" +
			" log level.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// logFile is used when the log output needs to be logged in a file
	logSaveFile = cli.BoolFlag{
		Name:  "log-save",
		Usage: "Boolean option for enabling log saving. If set, it will automatically save all the logs into a file.",
	}
	// workingDirectory defines a flag for the path for the working directory.
	workingDirectory = cli.StringFlag{
		Name:  "working-directory",
		Usage: "This flag specifies the `directory` where the fetcher will store its logs.",
		Value: "",
	}
	// configFile defines the TOML configuration file
	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "The `filepath` of the TOML configuration file.",
		Value: "./config.toml",
	}
	// envFile defines the file holding the channel API keys
	envFile = cli.StringFlag{
		Name:  "env-file",
		Usage: "The `filepath` of the env file holding the channel API keys referenced by APIKeyEnvVariable.",
		Value: "./.env",
	}
	inputFile = cli.StringFlag{
		Name:  "input",
		Usage: "The `filepath` of the hourly CSV file produced by a fetch run.",
	}
	outputFile = cli.StringFlag{
		Name:  "output",
		Usage: "The `filepath` where the resulting CSV file is written.",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = fetcherHelpTemplate
	app.Name = "Air quality telemetry fetcher"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for downloading the hourly air quality readings of the configured channels into a CSV file"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		configFile,
		envFile,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "clean",
			Usage:  "drops every row of a fetched CSV file that has at least one missing value",
			Flags:  []cli.Flag{inputFile, outputFile},
			Action: clean,
		},
		{
			Name:   "coverage",
			Usage:  "reports, for each channel, the period covered by complete readings and the gaps larger than one hour",
			Flags:  []cli.Flag{inputFile},
			Action: reportCoverage,
		},
	}

	app.Action = run

	defer func() {
		if fileLogging != nil {
			_ = fileLogging.Close()
		}
	}()

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	saveLogFile := ctx.GlobalBool(logSaveFile.Name)
	workingDir := ctx.GlobalString(workingDirectory.Name)

	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}

	fileLogging, err = commonGo.AttachFileLogger(log, defaultLogsPath, logFilePrefix, saveLogFile, workingDir)
	if err != nil {
		return err
	}

	if !check.IfNil(fileLogging) {
		timeLogLifeSpan := time.Second * time.Duration(logFileLifeSpanInSec)
		sizeLogLifeSpanInMB := uint64(logFileLifeSpanInMB)
		err = fileLogging.ChangeFileLifeSpan(timeLogLifeSpan, sizeLogLifeSpanInMB)
		if err != nil {
			return err
		}
	}

	return nil
}

func run(ctx *cli.Context) error {
	err := setupLogging(ctx)
	if err != nil {
		return err
	}

	log.Info("Starting air quality fetcher", "version", appVersion, "pid", os.Getpid())

	cfg, err := loadConfig(ctx.GlobalString(configFile.Name), ctx.GlobalString(envFile.Name))
	if err != nil {
		return err
	}

	handler, err := factory.NewComponentsHandler(*cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := handler.Process(runCtx)
	if err != nil {
		return err
	}

	log.Info("Fetch finished", "output", cfg.OutputFile, "hourly records", summary.Rows,
		"windows", summary.Windows, "failed fetches", summary.FailedFetches)

	return nil
}

func loadConfig(configPath string, envPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	env := cfg.EnvVariables()
	err = commonGo.ReadEnvFile(envPath, env)
	if err != nil {
		return nil, err
	}
	cfg.ResolveAPIKeys(env)

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func clean(ctx *cli.Context) error {
	err := setupLogging(ctx)
	if err != nil {
		return err
	}

	in := ctx.String(inputFile.Name)
	out := ctx.String(outputFile.Name)
	if in == "" || out == "" {
		return fmt.Errorf("both --%s and --%s are required", inputFile.Name, outputFile.Name)
	}

	sheet, err := output.ReadCSV(in, aggregator.ColumnUTC)
	if err != nil {
		return err
	}

	cleaned, stats, err := cleaner.Clean(sheet)
	if err != nil {
		return err
	}

	writer, err := output.NewCSVWriter(out)
	if err != nil {
		return err
	}

	err = writer.Write(cleaned)
	if err != nil {
		return err
	}

	log.Info("Clean finished", "output", out, "kept rows", stats.Kept, "dropped rows", stats.Dropped)

	return nil
}

func reportCoverage(ctx *cli.Context) error {
	err := setupLogging(ctx)
	if err != nil {
		return err
	}

	in := ctx.String(inputFile.Name)
	if in == "" {
		return fmt.Errorf("--%s is required", inputFile.Name)
	}

	sheet, err := output.ReadCSV(in, aggregator.ColumnUTC)
	if err != nil {
		return err
	}

	results, err := coverage.Analyze(sheet)
	if err != nil {
		return err
	}

	for _, res := range results {
		if res.ValidRecords == 0 {
			log.Info("no complete readings", "channel", res.Channel, "metrics", res.Metrics)
			continue
		}

		log.Info("channel coverage", "channel", res.Channel, "metrics", res.Metrics,
			"start", res.Start.Format(time.DateTime), "end", res.End.Format(time.DateTime),
			"valid records", res.ValidRecords, "common interval", res.CommonInterval, "gaps", len(res.Gaps))
		for _, gap := range res.Gaps {
			log.Info("gap after", "channel", res.Channel, "timestamp", gap.Format(time.DateTime))
		}
	}

	return nil
}
