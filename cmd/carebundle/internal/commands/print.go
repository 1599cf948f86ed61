package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/carebundle/internal/logger"
	"github.com/wolfeidau/carebundle/internal/render"
)

// PrintCmd renders the build description for an external bundler.
type PrintCmd struct {
	Project ProjectFlags `embed:""`
	Format  string       `help:"output format" default:"json" enum:"json,yaml" env:"CAREBUNDLE_FORMAT"`
	Output  string       `help:"write to this file instead of stdout" type:"path" short:"o"`
}

func (c *PrintCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	d, root, err := c.Project.Describe()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout

	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := render.Write(w, d, render.Format(c.Format)); err != nil {
		return fmt.Errorf("failed to render build description: %w", err)
	}

	log.Debug().Str("mode", d.Mode.String()).Str("root", root).Str("format", c.Format).Msg("Rendered build description")
	return nil
}
