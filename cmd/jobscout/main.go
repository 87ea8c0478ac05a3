package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"jobscout/internal/app"
	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

const usage = `jobscout discovers job listing selectors with an LLM and scrapes careers pages

usage:
  jobscout [-config path] <command> [flags] [args]

commands:
  scout        <company> <url>   discover and store list selectors
  scrape       <company> [url]   scrape one company; url defaults to the companies file
  batch-scout                    scout every company in the companies file
  batch-scrape                   scrape every company in the companies file
  run                            scout companies without selectors, then scrape all (default)
  status                         print the model fallback configuration and stored selectors
`

var errUsage = errors.New("usage")

// command is a parsed invocation
type command struct {
	name       string
	configPath string
	company    string
	url        string
	engine     string
	details    *bool
	rediscover bool
	companies  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, err := parse(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "%v\n\n", err)
		}
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.LoadConfig(cmd.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if cmd.companies != "" {
		cfg.Batch.CompaniesFile = cmd.companies
	}
	if err := logging.InitializeLogging(cfg.Logging); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return 1
	}
	defer logging.CloseLogging()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize: %v\n", err)
		return 1
	}
	defer a.Close()

	fmt.Fprintln(stderr, "Model fallback configuration")
	for _, line := range a.FallbackSummary() {
		fmt.Fprintln(stderr, "  "+line)
	}
	fmt.Fprintln(stderr)

	if err := execute(ctx, a, cmd, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "%s failed: %v\n", cmd.name, err)
		return 1
	}
	return 0
}

func parse(args []string, stderr io.Writer) (*command, error) {
	global := flag.NewFlagSet("jobscout", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	configPath := global.String("config", "configs/config.yaml", "path to the YAML configuration")
	if err := global.Parse(args); err != nil {
		return nil, err
	}

	rest := global.Args()
	cmd := &command{name: "run", configPath: *configPath}
	if len(rest) > 0 {
		cmd.name, rest = rest[0], rest[1:]
	}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cmd.companies, "companies", "", "companies file, overrides batch.companies_file")

	var details string
	switch cmd.name {
	case "scrape":
		fs.StringVar(&cmd.engine, "engine", "", "scraping engine: headed or static")
		fs.StringVar(&details, "details", "", "visit detail pages: true or false, default from config")
		fs.BoolVar(&cmd.rediscover, "rediscover", false, "ignore stored selectors")
	case "scout", "batch-scout", "batch-scrape", "run", "status":
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd.name)
	}
	if err := fs.Parse(rest); err != nil {
		return nil, err
	}
	positional := fs.Args()

	switch cmd.name {
	case "scout":
		if len(positional) != 2 {
			return nil, fmt.Errorf("%w: scout requires <company> <url>", errUsage)
		}
		cmd.company, cmd.url = positional[0], positional[1]
	case "scrape":
		if len(positional) < 1 || len(positional) > 2 {
			return nil, fmt.Errorf("%w: scrape requires <company> [url]", errUsage)
		}
		cmd.company = positional[0]
		if len(positional) == 2 {
			cmd.url = positional[1]
		}
	default:
		if len(positional) > 0 {
			return nil, fmt.Errorf("%w: %s takes no arguments", errUsage, cmd.name)
		}
	}

	switch strings.ToLower(details) {
	case "":
	case "true", "yes", "1":
		v := true
		cmd.details = &v
	case "false", "no", "0":
		v := false
		cmd.details = &v
	default:
		return nil, fmt.Errorf("%w: -details must be true or false", errUsage)
	}
	return cmd, nil
}

func execute(ctx context.Context, a *app.App, cmd *command, out, errOut io.Writer) error {
	switch cmd.name {
	case "scout":
		selectors, err := a.Service.Scout(ctx, cmd.company, cmd.url)
		if err != nil {
			return err
		}
		return printJSON(out, selectors)

	case "scrape":
		url := cmd.url
		if url == "" {
			found, err := careerURL(a, cmd.company)
			if err != nil {
				return err
			}
			url = found
		}
		outcome, err := a.Service.Scrape(ctx, models.ScrapeRequest{
			Company:        cmd.company,
			URL:            url,
			Engine:         cmd.engine,
			ExtractDetails: cmd.details,
			Rediscover:     cmd.rediscover,
		})
		if err != nil {
			return err
		}
		for _, w := range outcome.Warnings {
			fmt.Fprintln(errOut, "warning: "+w)
		}
		return printJSON(out, outcome.Response(utils.GenerateRequestID()))

	case "batch-scout", "batch-scrape", "run":
		companies, err := a.LoadCompanies()
		if err != nil {
			return err
		}
		runner := a.BatchRunner()
		switch cmd.name {
		case "batch-scout":
			return printJSON(out, runner.BatchScout(ctx, companies))
		case "batch-scrape":
			return printJSON(out, runner.BatchScrape(ctx, companies))
		default:
			return printJSON(out, runner.RunAll(ctx, companies))
		}

	case "status":
		configs, err := a.Service.Configurations(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, map[string]interface{}{
			"llm":            a.LLM.Status(),
			"stored_configs": len(configs),
			"configurations": configs,
		})
	}
	return fmt.Errorf("unknown command: %s", cmd.name)
}

// careerURL looks the company up in the companies file
func careerURL(a *app.App, company string) (string, error) {
	companies, err := a.LoadCompanies()
	if err != nil {
		return "", fmt.Errorf("no url given and companies file unavailable: %w", err)
	}
	for _, c := range companies {
		if strings.EqualFold(c.Name, company) && c.CareerURL != "" {
			return c.CareerURL, nil
		}
	}
	return "", fmt.Errorf("no url given and %q has no career_url in %s", company, a.Config.Batch.CompaniesFile)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
