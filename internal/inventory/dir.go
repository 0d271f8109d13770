package inventory

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bundlescan/bundlescan/pkg/shared/errors"
)

// IngestDir builds a file inventory from an on-disk tree, applying the same
// bounds, classification, and tagging as Ingest. It backs repository scans,
// where a fetched working tree stands in for the archive.
func IngestDir(root string, limits Limits) ([]FileEntry, error) {
	type diskFile struct {
		relPath string
		size    int64
		abs     string
	}

	var inventoryFiles []diskFile
	var total int64
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		inventoryFiles = append(inventoryFiles, diskFile{relPath: rel, size: info.Size(), abs: p})
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(inventoryFiles) > limits.MaxFileCount {
		return nil, errors.NewBoundsError("max_file_count", int64(limits.MaxFileCount), int64(len(inventoryFiles)))
	}
	if total > limits.MaxTotalSizeBytes {
		return nil, errors.NewBoundsError("max_total_size_bytes", limits.MaxTotalSizeBytes, total)
	}

	// Inventory order is the deterministic, sorted path order.
	sort.Slice(inventoryFiles, func(i, j int) bool {
		return inventoryFiles[i].relPath < inventoryFiles[j].relPath
	})

	entries := make([]FileEntry, 0, len(inventoryFiles))
	for _, df := range inventoryFiles {
		entry := classify(df.relPath, df.size, limits)
		if entry.IsTextCandidate && !entry.IsIgnored && entry.SizeBytes <= limits.MaxFileSizeBytes {
			entry.Content = decodeFile(df.abs, limits.MaxFileSizeBytes)
		}
		finalizeTags(&entry)
		entries = append(entries, entry)
	}
	return entries, nil
}

// decodeFile reads a file through the same capped decoder as archive entries,
// so a file that grew between stat and read cannot exceed the per-file limit.
func decodeFile(absPath string, maxSize int64) string {
	f, err := os.Open(absPath)
	if err != nil {
		return ""
	}
	defer f.Close()
	return decodeText(f, maxSize)
}
