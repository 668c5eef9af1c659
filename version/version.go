package version

// Set at build time via -ldflags "-X github.com/ChristianF88/gcodex/version.Version=..."
var (
	Version = "dev"
	Date    = ""
)
