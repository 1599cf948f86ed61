package assets

import (
	"path/filepath"

	"github.com/wolfeidau/carebundle/internal/bundle"
)

type Config struct {
	// Description is the build to execute
	Description bundle.Description
	// Absolute project directory; entries and copy sources resolve against it
	Root string
	// Path to the esbuild metafile
	MetafilePath string
}

// DefaultConfig returns the configuration for building d inside root
func DefaultConfig(root string, d bundle.Description) Config {
	return Config{
		Description:  d,
		Root:         root,
		MetafilePath: filepath.Join(root, "meta.json"),
	}
}
