package scan

import (
	"strings"

	"github.com/bundlescan/bundlescan/internal/inventory"
	"github.com/bundlescan/bundlescan/internal/ruleset"
)

// structuredDataExts are extensions whose matches are classified as STRING:
// a hit inside structured data is a literal value, not executable code.
var structuredDataExts = map[string]bool{
	".json": true,
}

var commentMarkers = []string{"//", "/*", "*", "#", "<!--"}

// classifyLocation derives the location type of a match from the file's
// classification and the enclosing source line. The checks run in a fixed
// order and the last applicable downgrade wins, so a comment marker inside a
// test file classifies as COMMENT.
func classifyLocation(file *inventory.FileEntry, lineText string) LocationType {
	location := LocationCode

	if file.HasTag(inventory.TagSourceMap) || file.Ext == ".map" {
		location = LocationSourceMap
	}

	lowerPath := strings.ToLower(file.Path)
	if strings.Contains(lowerPath, "test") || strings.Contains(lowerPath, "spec") {
		location = LocationTest
	}
	if strings.Contains(lowerPath, "readme") || strings.HasSuffix(lowerPath, ".md") {
		location = LocationDoc
	}

	if structuredDataExts[file.Ext] {
		location = LocationString
	}

	trimmed := strings.TrimSpace(lineText)
	for _, marker := range commentMarkers {
		if strings.HasPrefix(trimmed, marker) {
			location = LocationComment
			break
		}
	}

	return location
}

// adjustConfidence applies the two independent downgrade triggers to the
// matcher's declared confidence. The location-based downgrade is evaluated
// after the tag-based one and takes precedence when both fire, so the
// surviving reason describes the location.
func adjustConfidence(declared ruleset.Confidence, file *inventory.FileEntry, location LocationType) (ruleset.Confidence, string) {
	confidence := declared
	reason := ""

	if file.HasTag(inventory.TagMinified) || file.HasTag(inventory.TagGeneratedBundle) {
		confidence = ruleset.ConfidenceLow
		reason = "match is in a minified or generated bundle file"
	}

	if location == LocationComment || location == LocationDoc {
		confidence = ruleset.ConfidenceLow
		reason = "match is located in a comment or documentation"
	}

	return confidence, reason
}
