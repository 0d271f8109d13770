package rules

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlescan/bundlescan/internal/ruleset"
	"github.com/bundlescan/bundlescan/pkg/shared/config"
	"github.com/bundlescan/bundlescan/pkg/shared/files"
	"github.com/bundlescan/bundlescan/pkg/shared/logger"
)

var (
	AppConfig         *config.Config
	rulesetPath       string
	exampleRulesUsage = `  # Listing the built-in ruleset
  bundlescan rules

  # Validating a custom ruleset file
  bundlescan rules --ruleset /path/to/rules.yml`
)

// RulesCmd lists a ruleset and doubles as its validator: loading performs
// the full schema and pattern-compilation checks.
var RulesCmd = &cobra.Command{
	Use:                   "rules [--ruleset/-r PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleRulesUsage,
	Short:                 "Validate and list a ruleset",
	RunE:                  runRulesCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

func init() {
	RulesCmd.Flags().StringVarP(&rulesetPath, "ruleset", "r", "", "path to a YAML ruleset (default is the built-in ruleset)")
}

func runRulesCommand(cmd *cobra.Command, args []string) error {
	log := logger.NewLogger(AppConfig, "core-rules")

	var rs *ruleset.Ruleset
	if rulesetPath == "" {
		rs = ruleset.Default()
	} else {
		expanded, err := files.ExpandPath(rulesetPath)
		if err != nil {
			return err
		}
		rs, err = ruleset.Load(expanded)
		if err != nil {
			log.Error("ruleset failed validation", "error", err)
			return err
		}
	}

	fmt.Printf("Ruleset version: %s (%d rules)\n", rs.Version, len(rs.Rules))
	for _, rule := range rs.Rules {
		fmt.Printf("  %-28s %-17s %-8s %d matcher(s)\n", rule.ID, rule.ReviewBucket, rule.Severity, len(rule.Matchers))
	}
	return nil
}
