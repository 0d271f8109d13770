package config

// Default values applied by ValidateConfig when the corresponding YAML
// directive is absent or zero.
const (
	DefaultConfigVersion = "1"

	DefaultMaxFileSizeBytes  = 2 * 1024 * 1024
	DefaultMaxTotalSizeBytes = 100 * 1024 * 1024
	DefaultMaxFileCount      = 5000
	DefaultMaxMatchesPerFile = 100
	DefaultWorkers           = 1
)

// DefaultTextExtensions is the explicit extension allowlist used for
// text-candidacy classification. Classification is by extension, never by
// content sniffing.
var DefaultTextExtensions = []string{
	".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs",
	".json", ".css", ".scss", ".less",
	".html", ".htm", ".xml", ".svg",
	".md", ".txt", ".yml", ".yaml", ".toml",
	".map", ".sh", ".env", ".cfg", ".ini", ".properties",
}

// DefaultIgnoreGlobs lists path patterns that are inventoried for summary
// counts but never decoded or scanned.
var DefaultIgnoreGlobs = []string{
	"**/node_modules/**",
	"**/vendor/**",
	"**/.git/**",
	"**/.hg/**",
	"**/.svn/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/*.map",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
}
