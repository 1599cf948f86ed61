package commands

import (
	"fmt"
	"path/filepath"

	"github.com/wolfeidau/carebundle/internal/bundle"
)

type Globals struct {
	Debug   bool
	Version string
}

// ProjectFlags select the project and build mode shared by every command.
type ProjectFlags struct {
	Root string `help:"project root containing src and public" default:"." env:"CAREBUNDLE_ROOT" type:"existingdir"`
	Mode string `help:"build mode; anything other than production builds for development" default:"" env:"CAREBUNDLE_MODE"`
}

// Describe resolves the project root and builds the description for it.
func (f *ProjectFlags) Describe() (bundle.Description, string, error) {
	root, err := filepath.Abs(f.Root)
	if err != nil {
		return bundle.Description{}, "", fmt.Errorf("failed to resolve project root: %w", err)
	}

	d := bundle.Build(bundle.Env{Root: root}, bundle.Args{Mode: f.Mode})
	if err := d.Validate(); err != nil {
		return bundle.Description{}, "", fmt.Errorf("invalid build description: %w", err)
	}

	return d, root, nil
}
