package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/bundlescan/bundlescan/internal/advisory"
	"github.com/bundlescan/bundlescan/internal/emaildraft"
	"github.com/bundlescan/bundlescan/internal/fetcher"
	"github.com/bundlescan/bundlescan/internal/history"
	"github.com/bundlescan/bundlescan/internal/inventory"
	"github.com/bundlescan/bundlescan/internal/report"
	"github.com/bundlescan/bundlescan/internal/ruleset"
	"github.com/bundlescan/bundlescan/internal/sarif"
	"github.com/bundlescan/bundlescan/internal/scan"
	"github.com/bundlescan/bundlescan/pkg/shared/config"
	"github.com/bundlescan/bundlescan/pkg/shared/files"
	"github.com/bundlescan/bundlescan/pkg/shared/logger"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	RulesetPath    string
	Repo           string
	Branch         string
	ReportFormat   string
	OutputPath     string
	EmailDraftPath string
	Workers        int
	NoHistory      bool
	Advise         bool
}

var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exitCode         int
	exampleScanUsage = `  # Scanning a bundle archive with the built-in ruleset
  bundlescan scan /path/to/bundle.zip

  # Scanning with a custom ruleset and writing the report to a file
  bundlescan scan --ruleset /path/to/rules.yml --output report.json /path/to/bundle.zip

  # Producing a SARIF report for code-review tooling
  bundlescan scan --format sarif --output report.sarif /path/to/bundle.zip

  # Scanning a repository working tree instead of an archive
  bundlescan scan --repo https://github.com/acme/widget --branch main

  # Scanning with four workers and requesting advisory suggestions
  bundlescan scan -j 4 --advise /path/to/bundle.zip`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan [--ruleset/-r PATH] [--format/-f json|sarif] [--output/-o PATH] [-j WORKERS] {--repo URL | ARCHIVE_PATH}",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Scan an application bundle and produce a findings report with a verdict",
	RunE:                  runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// ExitCode maps the last verdict to the process exit code: 0 for PASS,
// 1 for ACTION_REQUIRED, 2 for REJECTED.
func ExitCode() int {
	return exitCode
}

func init() {
	ScanCmd.Flags().StringVarP(&scanOptions.RulesetPath, "ruleset", "r", "", "path to a YAML ruleset (default is the built-in ruleset)")
	ScanCmd.Flags().StringVar(&scanOptions.Repo, "repo", "", "repository URL to fetch and scan instead of an archive")
	ScanCmd.Flags().StringVar(&scanOptions.Branch, "branch", "", "branch to check out when scanning a repository")
	ScanCmd.Flags().StringVarP(&scanOptions.ReportFormat, "format", "f", "json", "report format: json or sarif")
	ScanCmd.Flags().StringVarP(&scanOptions.OutputPath, "output", "o", "", "file to write the report to (default is stdout)")
	ScanCmd.Flags().StringVar(&scanOptions.EmailDraftPath, "email-draft", "", "file to write a plain-text review email draft to")
	ScanCmd.Flags().IntVarP(&scanOptions.Workers, "workers", "j", 0, "number of concurrent scan workers (default from config)")
	ScanCmd.Flags().BoolVar(&scanOptions.NoHistory, "no-history", false, "do not record this run in the scan history")
	ScanCmd.Flags().BoolVar(&scanOptions.Advise, "advise", false, "request advisory suggestions for the finished report")
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	log := logger.NewLogger(AppConfig, "core-scan")

	if err := validateScanArgs(&scanOptions, args); err != nil {
		log.Error("invalid scan arguments", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rs, err := loadRuleset(AppConfig, &scanOptions)
	if err != nil {
		log.Error("failed to load ruleset", "error", err)
		return err
	}
	log.Debug("ruleset loaded", "version", rs.Version, "rules", len(rs.Rules))

	limits := inventory.LimitsFromConfig(&AppConfig.Scan)
	entries, bundleName, err := buildInventory(ctx, args, limits, log)
	if err != nil {
		log.Error("failed to ingest bundle", "error", err)
		return err
	}
	log.Info("bundle ingested", "bundle", bundleName, "files", len(entries))

	workers := scanOptions.Workers
	if workers <= 0 {
		workers = AppConfig.Scan.Workers
	}
	findings, err := scan.Run(ctx, entries, rs, limits, scan.Options{
		Workers: workers,
		OnProgress: func(done, total int) {
			log.Debug("scan progress", "done", done, "total", total)
		},
	})
	if err != nil {
		log.Error("scan aborted", "error", err)
		return err
	}

	rep := report.Build(findings, rs, entries, limits, AppConfig.Version)
	log.Info("scan finished", "verdict", rep.Verdict, "findings", rep.FindingCount())

	if err := writeReport(rep, &scanOptions); err != nil {
		log.Error("failed to write report", "error", err)
		return err
	}

	if scanOptions.EmailDraftPath != "" {
		if err := writeEmailDraft(rep, scanOptions.EmailDraftPath); err != nil {
			log.Error("failed to write email draft", "error", err)
			return err
		}
	}

	if !scanOptions.NoHistory {
		store := history.NewStore(config.GetHistoryHome(AppConfig), log)
		if err := store.Append(bundleName, rep); err != nil {
			// History is a convenience; a persistence failure must not fail
			// the scan that already produced its report.
			log.Warn("failed to record scan history", "error", err)
		}
	}

	if scanOptions.Advise {
		printAdvice(ctx, rep, log)
	}

	switch rep.Verdict {
	case report.VerdictRejected:
		exitCode = 2
	case report.VerdictActionRequired:
		exitCode = 1
	default:
		exitCode = 0
	}
	return nil
}

// loadRuleset resolves the ruleset source: the flag, then the config
// directive, then the embedded default.
func loadRuleset(cfg *config.Config, opts *RunOptionsScan) (*ruleset.Ruleset, error) {
	path := opts.RulesetPath
	if path == "" {
		path = cfg.Bundlescan.RulesetPath
	}
	if path == "" {
		return ruleset.Default(), nil
	}
	expanded, err := files.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return ruleset.Load(expanded)
}

// buildInventory ingests either the archive argument or a fetched repository
// working tree.
func buildInventory(ctx context.Context, args []string, limits inventory.Limits, log hclog.Logger) ([]inventory.FileEntry, string, error) {
	if scanOptions.Repo != "" {
		f := fetcher.New(scanOptions.Branch, logger.NewLogger(AppConfig, "core-fetch"))
		checkout, cleanup, err := f.Fetch(ctx, scanOptions.Repo)
		if err != nil {
			return nil, "", err
		}
		defer cleanup()
		entries, err := inventory.IngestDir(checkout, limits)
		return entries, scanOptions.Repo, err
	}

	archivePath := args[0]
	log.Debug("reading archive", "path", archivePath)
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read archive %q: %w", archivePath, err)
	}
	entries, err := inventory.Ingest(data, limits)
	return entries, archivePath, err
}

func writeReport(rep *report.ScanReport, opts *RunOptionsScan) error {
	if opts.ReportFormat == "sarif" {
		if opts.OutputPath == "" {
			return sarif.Write(rep, os.Stdout)
		}
		out, err := os.Create(opts.OutputPath)
		if err != nil {
			return err
		}
		defer out.Close()
		return sarif.Write(rep, out)
	}

	data, err := rep.MarshalIndent()
	if err != nil {
		return err
	}
	if opts.OutputPath == "" {
		fmt.Println(string(data))
		return nil
	}
	return files.WriteJSONFile(opts.OutputPath, data)
}

func writeEmailDraft(rep *report.ScanReport, path string) error {
	draft, err := emaildraft.Render(rep)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(draft), 0o644)
}

func printAdvice(ctx context.Context, rep *report.ScanReport, log hclog.Logger) {
	client := advisory.NewClient(AppConfig, logger.NewLogger(AppConfig, "core-advisory"))
	if client == nil {
		log.Warn("advisory requested but not configured; skipping")
		return
	}
	advice := client.Advise(ctx, rep)
	if advice == nil {
		log.Warn("no advisory result available")
		return
	}
	for _, risk := range advice.MissedRisks {
		log.Info("advisory: possible missed risk", "suggestion", risk)
	}
	for _, rule := range advice.CandidateRules {
		log.Info("advisory: candidate rule", "suggestion", rule)
	}
	for _, noise := range advice.NoiseReduction {
		log.Info("advisory: noise reduction", "suggestion", noise)
	}
	for _, q := range advice.ReviewerQuestions {
		log.Info("advisory: reviewer question", "suggestion", q)
	}
}
