package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlescan/bundlescan/internal/report"
	"github.com/bundlescan/bundlescan/internal/ruleset"
)

var (
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version of the application and its bundled policy",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Core Version: v%s\n", CoreVersion)
			fmt.Printf("Report Schema Version: %s\n", report.SchemaVersion)
			fmt.Printf("Built-in Ruleset Version: %s\n", ruleset.Default().Version)
			fmt.Printf("Go Version: %s\n", GolangVersion)
			fmt.Printf("Build Time: %s\n", BuildTime)
		},
	}
}
