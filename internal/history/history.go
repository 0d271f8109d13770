// Package history persists per-run scan summaries for the history view.
// Only the condensed summary is stored; full reports stay wherever the
// caller wrote them.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/bundlescan/bundlescan/internal/report"
	"github.com/bundlescan/bundlescan/pkg/shared/files"
)

const historyFileName = "history.json"

// Entry is the stored summary of one scan run.
type Entry struct {
	RunID        string         `json:"runId"`
	CreatedAt    time.Time      `json:"createdAt"`
	Bundle       string         `json:"bundle"`
	Verdict      report.Verdict `json:"verdict"`
	FindingCount int            `json:"findingCount"`
	FileCount    int            `json:"fileCount"`
}

// Store reads and appends history entries in a JSON file under the
// configured history folder.
type Store struct {
	folder string
	logger hclog.Logger
}

// NewStore creates a history store rooted at folder.
func NewStore(folder string, logger hclog.Logger) *Store {
	return &Store{folder: folder, logger: logger}
}

func (s *Store) path() string {
	return filepath.Join(s.folder, historyFileName)
}

// List returns all stored entries, newest first.
func (s *Store) List() ([]Entry, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Append records the summary of a finished report. The engine never calls
// this; persisting is a command-level decision.
func (s *Store) Append(bundle string, r *report.ScanReport) error {
	entries, err := s.List()
	if err != nil {
		s.logger.Warn("history file is unreadable, starting fresh", "error", err)
		entries = nil
	}

	entries = append(entries, Entry{
		RunID:        r.RunID,
		CreatedAt:    r.CreatedAt,
		Bundle:       bundle,
		Verdict:      r.Verdict,
		FindingCount: r.FindingCount(),
		FileCount:    r.BundleSummary.FileCount,
	})

	if err := files.CreateFolderIfNotExists(s.folder); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}
	return files.WriteJSONFile(s.path(), data)
}
