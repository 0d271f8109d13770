package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bundlescan/bundlescan/cmd/history"
	"github.com/bundlescan/bundlescan/cmd/rules"
	"github.com/bundlescan/bundlescan/cmd/scan"
	"github.com/bundlescan/bundlescan/cmd/version"
	"github.com/bundlescan/bundlescan/pkg/shared/config"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "bundlescan [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Bundlescan reviews third-party application bundles against a security ruleset.",
		Long: `Bundlescan ingests an application bundle archive, evaluates a versioned
ruleset of pattern matchers against its files, and produces a deterministic
findings report with a pass/fail verdict.
`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(rules.RulesCmd)
	rootCmd.AddCommand(history.HistoryCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and maps the scan verdict to the process
// exit code so CI pipelines can gate on it.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return scan.ExitCode()
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config file: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	scan.Init(AppConfig)
	rules.Init(AppConfig)
	history.Init(AppConfig)
}
