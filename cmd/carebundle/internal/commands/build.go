package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/carebundle/internal/assets"
	"github.com/wolfeidau/carebundle/internal/logger"
)

// BuildCmd bundles the application into the output directory.
type BuildCmd struct {
	Project  ProjectFlags `embed:""`
	Metafile string       `help:"path of the esbuild metafile (default: <root>/meta.json)" type:"path" env:"CAREBUNDLE_METAFILE"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	d, root, err := c.Project.Describe()
	if err != nil {
		return err
	}

	log.Info().Str("version", globals.Version).Str("mode", d.Mode.String()).Str("root", root).Msg("Starting build")

	cfg := assets.DefaultConfig(root, d)
	if c.Metafile != "" {
		cfg.MetafilePath = c.Metafile
	}

	res, err := assets.New(cfg).Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	log.Info().
		Dur("duration", res.Duration).
		Int("outputs", len(res.Outputs)).
		Strs("copied", res.Copied).
		Strs("skipped", res.Skipped).
		Int("precached", res.Precached).
		Msg("Build complete")

	return nil
}
