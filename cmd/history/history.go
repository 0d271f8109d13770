package history

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlescan/bundlescan/internal/history"
	"github.com/bundlescan/bundlescan/pkg/shared/config"
	"github.com/bundlescan/bundlescan/pkg/shared/logger"
)

var AppConfig *config.Config

// HistoryCmd lists past scan runs recorded by the scan command.
var HistoryCmd = &cobra.Command{
	Use:                   "history",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Short:                 "List recorded scan runs",
	RunE:                  runHistoryCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

func runHistoryCommand(cmd *cobra.Command, args []string) error {
	log := logger.NewLogger(AppConfig, "core-history")

	store := history.NewStore(config.GetHistoryHome(AppConfig), log)
	entries, err := store.List()
	if err != nil {
		log.Error("failed to read scan history", "error", err)
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No scans recorded yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %-15s %4d finding(s) in %4d file(s)  %s  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Verdict, e.FindingCount, e.FileCount, e.RunID, e.Bundle)
	}
	return nil
}
