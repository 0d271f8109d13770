// Package inventory unpacks an application bundle into an in-memory file
// inventory. It enforces the session resource bounds before any entry is
// decoded, classifies entries as text candidates by extension, applies the
// ignore globs, and tags entries with filename and content-shape heuristics.
package inventory

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/bundlescan/bundlescan/internal/fileglob"
	"github.com/bundlescan/bundlescan/pkg/shared/config"
	"github.com/bundlescan/bundlescan/pkg/shared/errors"
)

// Tag is a classification heuristic attached to a file entry.
type Tag string

const (
	TagMinified        Tag = "MINIFIED_FILE"
	TagSourceMap       Tag = "SOURCE_MAP"
	TagGeneratedBundle Tag = "GENERATED_BUNDLE"
	TagVendorDir       Tag = "VENDOR_DIR"
	TagTestFile        Tag = "TEST_FILE"
)

// Files longer than this with no newline at all are treated as minified
// regardless of extension; it catches bundlers that strip the conventional
// `.min` suffix.
const noNewlineMinifiedThreshold = 1024

// FileEntry is one archive entry. Content is populated iff the entry is a
// text candidate and not ignored; decode failures degrade to empty content.
// Entries are created during ingestion and never mutated afterwards.
type FileEntry struct {
	Path            string `json:"path"`
	SizeBytes       int64  `json:"sizeBytes"`
	Ext             string `json:"ext"`
	IsTextCandidate bool   `json:"isTextCandidate"`
	IsIgnored       bool   `json:"isIgnored"`
	Content         string `json:"-"`
	Tags            []Tag  `json:"tags,omitempty"`
}

// HasTag reports whether the entry carries the given tag.
func (f *FileEntry) HasTag(tag Tag) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Limits is the immutable resource and classification configuration for one
// ingestion/scan session. It is always passed explicitly; there is no shared
// mutable default.
type Limits struct {
	MaxFileSizeBytes  int64
	MaxTotalSizeBytes int64
	MaxFileCount      int
	MaxMatchesPerFile int
	TextExtensions    []string
	IgnoreGlobs       []string
}

// LimitsFromConfig derives a Limits value from the validated scan section of
// the global configuration.
func LimitsFromConfig(scanCfg *config.Scan) Limits {
	return Limits{
		MaxFileSizeBytes:  scanCfg.MaxFileSizeBytes,
		MaxTotalSizeBytes: scanCfg.MaxTotalSizeBytes,
		MaxFileCount:      scanCfg.MaxFileCount,
		MaxMatchesPerFile: scanCfg.MaxMatchesPerFile,
		TextExtensions:    scanCfg.TextExtensions,
		IgnoreGlobs:       scanCfg.IgnoreGlobs,
	}
}

// DefaultLimits returns a Limits value carrying the built-in defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSizeBytes:  config.DefaultMaxFileSizeBytes,
		MaxTotalSizeBytes: config.DefaultMaxTotalSizeBytes,
		MaxFileCount:      config.DefaultMaxFileCount,
		MaxMatchesPerFile: config.DefaultMaxMatchesPerFile,
		TextExtensions:    config.DefaultTextExtensions,
		IgnoreGlobs:       config.DefaultIgnoreGlobs,
	}
}

func (l Limits) isTextExtension(ext string) bool {
	for _, allowed := range l.TextExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Ingest unpacks a zip archive held in memory into a file inventory. It fails
// fast with a BoundsError before any decoding if the archive size exceeds
// MaxTotalSizeBytes or the non-directory entry count exceeds MaxFileCount.
func Ingest(archive []byte, limits Limits) ([]FileEntry, error) {
	if int64(len(archive)) > limits.MaxTotalSizeBytes {
		return nil, errors.NewBoundsError("max_total_size_bytes", limits.MaxTotalSizeBytes, int64(len(archive)))
	}

	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}

	// Bounds are checked over the declared archive directory before any
	// entry content is touched.
	var declaredTotal int64
	fileCount := 0
	for _, zf := range reader.File {
		if isDirEntry(zf) {
			continue
		}
		fileCount++
		declaredTotal += int64(zf.UncompressedSize64)
	}
	if fileCount > limits.MaxFileCount {
		return nil, errors.NewBoundsError("max_file_count", int64(limits.MaxFileCount), int64(fileCount))
	}
	if declaredTotal > limits.MaxTotalSizeBytes {
		return nil, errors.NewBoundsError("max_total_size_bytes", limits.MaxTotalSizeBytes, declaredTotal)
	}

	entries := make([]FileEntry, 0, fileCount)
	for _, zf := range reader.File {
		if isDirEntry(zf) {
			continue
		}
		entry := classify(normalizePath(zf.Name), int64(zf.UncompressedSize64), limits)

		if entry.IsTextCandidate && !entry.IsIgnored && entry.SizeBytes <= limits.MaxFileSizeBytes {
			entry.Content = decodeEntry(zf, limits.MaxFileSizeBytes)
		}
		finalizeTags(&entry)
		entries = append(entries, entry)
	}

	return entries, nil
}

func isDirEntry(zf *zip.File) bool {
	return strings.HasSuffix(zf.Name, "/") || zf.FileInfo().IsDir()
}

func normalizePath(name string) string {
	p := strings.ReplaceAll(name, "\\", "/")
	p = path.Clean(p)
	return strings.TrimPrefix(p, "/")
}

// classify builds the entry skeleton: extension, text candidacy, ignore
// status, and path-based tags. Content is attached by the caller.
func classify(relPath string, size int64, limits Limits) FileEntry {
	ext := strings.ToLower(path.Ext(relPath))
	entry := FileEntry{
		Path:            relPath,
		SizeBytes:       size,
		Ext:             ext,
		IsTextCandidate: limits.isTextExtension(ext),
		IsIgnored:       matchesIgnore(relPath, limits.IgnoreGlobs),
		Tags:            pathTags(relPath),
	}
	return entry
}

// matchesIgnore is not MatchAny: an empty ignore set ignores nothing.
func matchesIgnore(relPath string, ignoreGlobs []string) bool {
	for _, g := range ignoreGlobs {
		if fileglob.Match(relPath, g) {
			return true
		}
	}
	return false
}

// pathTags applies the filename heuristics. Detection is deliberate substring
// matching, not parsing; its false-positive profile is part of the contract.
func pathTags(relPath string) []Tag {
	var tags []Tag
	lower := strings.ToLower(relPath)
	base := path.Base(lower)

	if strings.HasSuffix(base, ".min.js") || strings.HasSuffix(base, ".min.css") {
		tags = append(tags, TagMinified)
	}
	if strings.HasSuffix(base, ".map") {
		tags = append(tags, TagSourceMap)
	}
	if strings.Contains(lower, "bundle.") || strings.Contains(lower, "chunk.") {
		tags = append(tags, TagGeneratedBundle)
	}
	if strings.Contains(lower, "vendor") || strings.Contains(lower, "node_modules") {
		tags = append(tags, TagVendorDir)
	}
	if strings.Contains(lower, "test") || strings.Contains(lower, "spec") || strings.Contains(lower, "__tests__") {
		tags = append(tags, TagTestFile)
	}
	return tags
}

// finalizeTags applies the content-shape heuristic once content is known.
func finalizeTags(entry *FileEntry) {
	if entry.HasTag(TagMinified) {
		return
	}
	if len(entry.Content) > noNewlineMinifiedThreshold && !strings.ContainsRune(entry.Content, '\n') {
		entry.Tags = append(entry.Tags, TagMinified)
	}
}

// decodeEntry reads an entry as UTF-8 text. The declared size was checked
// upstream, but the zip header is attacker-supplied, so reading is re-capped:
// an entry that decompresses past maxSize degrades to empty content like any
// other decode failure.
func decodeEntry(zf *zip.File, maxSize int64) string {
	rc, err := zf.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	return decodeText(rc, maxSize)
}

// decodeText reads at most maxSize bytes of valid UTF-8 from r. Oversized or
// non-UTF-8 input degrades to empty content rather than aborting ingestion.
func decodeText(r io.Reader, maxSize int64) string {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return ""
	}
	if int64(len(data)) > maxSize {
		return ""
	}
	if !utf8.Valid(data) {
		return ""
	}
	return string(data)
}
