package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/carebundle/internal/bundle"
)

// Build runs esbuild with the translated options and the post-build steps
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	started := time.Now()
	d := p.config.Description
	log := zerolog.Ctx(ctx)

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build description: %w", err)
	}

	if _, ok := d.Plugin(bundle.PluginClean); ok {
		log.Debug().Str("dir", d.Output.Path).Msg("Cleaning output directory")
		if err := os.RemoveAll(d.Output.Path); err != nil {
			return nil, fmt.Errorf("failed to clean output directory: %w", err)
		}
	}

	log.Info().Str("mode", d.Mode.String()).Str("outdir", d.Output.Path).Msg("Building assets")

	result := api.Build(p.Options())
	if err := reportErrors(ctx, result.Errors); err != nil {
		return nil, err
	}

	res, err := p.finish(ctx, result)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(started)

	return res, nil
}

// Watch builds once and then rebuilds on every source change until ctx is done
func (p *Pipeline) Watch(ctx context.Context) error {
	log := zerolog.Ctx(ctx)

	if err := p.config.Description.Validate(); err != nil {
		return fmt.Errorf("invalid build description: %w", err)
	}

	opts := p.Options()
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name: "carebundle-rebuild",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if err := reportErrors(ctx, result.Errors); err != nil {
					return api.OnEndResult{}, nil
				}

				p.mu.Lock()
				defer p.mu.Unlock()

				res, err := p.finish(ctx, *result)
				if err != nil {
					log.Error().Err(err).Msg("Post-build step failed")
					return api.OnEndResult{}, nil
				}
				log.Info().Int("outputs", len(res.Outputs)).Msg("Rebuilt assets")
				return api.OnEndResult{}, nil
			})
		},
	})

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return fmt.Errorf("failed to create esbuild context: %w", ctxErr)
	}
	defer buildCtx.Dispose()

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}
	log.Info().Str("outdir", p.config.Description.Output.Path).Msg("Watching for changes")

	<-ctx.Done()
	return nil
}

func reportErrors(ctx context.Context, messages []api.Message) error {
	if len(messages) == 0 {
		return nil
	}
	for _, msg := range messages {
		event := zerolog.Ctx(ctx).Error().Str("error", msg.Text)
		if msg.Location != nil {
			event = event.Str("file", msg.Location.File).Int("line", msg.Location.Line)
		}
		event.Msg("Build error")
	}
	return ErrBuildFailed
}

// finish runs the post-build steps; callers hold p.mu.
func (p *Pipeline) finish(ctx context.Context, result api.BuildResult) (*Result, error) {
	log := zerolog.Ctx(ctx)
	d := p.config.Description
	res := &Result{}

	for _, file := range result.OutputFiles {
		log.Debug().Str("file", file.Path).Msg("Built file")
		res.Outputs = append(res.Outputs, file.Path)
	}

	// Write metafile
	if err := os.WriteFile(p.config.MetafilePath, []byte(result.Metafile), 0600); err != nil {
		return nil, err
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, err
	}
	p.metadata = &metadata

	if err := p.copyAssets(ctx, res); err != nil {
		return nil, err
	}

	if plugin, ok := d.Plugin(bundle.PluginHTML); ok {
		opts, _ := plugin.Options.(bundle.HTMLOptions)
		if err := p.writeHTML(opts); err != nil {
			return nil, fmt.Errorf("failed to write html: %w", err)
		}
	}

	if plugin, ok := d.Plugin(bundle.PluginGenerateSW); ok {
		opts, _ := plugin.Options.(bundle.GenerateSWOptions)
		n, err := p.writePrecacheManifest(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to write precache manifest: %w", err)
		}
		res.Precached = n
	}

	return res, nil
}

// copyAssets copies the static files listed in the description. A missing
// source fails the build unless the pattern tolerates it.
func (p *Pipeline) copyAssets(ctx context.Context, res *Result) error {
	d := p.config.Description

	for _, pattern := range d.AssetCopyRules {
		src := filepath.Join(p.config.Root, pattern.From)
		if _, err := os.Stat(src); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if !pattern.NoErrorOnMissing {
				return fmt.Errorf("%w: %s", ErrMissingAsset, pattern.From)
			}
			zerolog.Ctx(ctx).Warn().Str("from", pattern.From).Msg("Skipping missing asset")
			res.Skipped = append(res.Skipped, pattern.From)
			continue
		}

		dst := filepath.Join(d.Output.Path, pattern.To)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to copy %s: %w", pattern.From, err)
		}
		res.Copied = append(res.Copied, pattern.To)
	}

	return nil
}

// LoadScripts returns the ordered list of script URLs needed for the named
// entry and the URL of the entry file itself
func (p *Pipeline) LoadScripts(entry string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loadScripts(entry)
}

func (p *Pipeline) loadScripts(entry string) ([]string, string, error) {
	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	entryPoint := entryNamespace + ":" + entry
	scripts := []string{}
	visited := make(map[string]bool)

	// Find the output file for this entrypoint
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == entryPoint {
			url := p.publicURL(outputPath)
			scripts = append(scripts, url)
			visited[outputPath] = true
			p.addDependencies(info, &scripts, visited)
			return scripts, url, nil
		}
	}

	return nil, "", fmt.Errorf("entrypoint %q not found in metadata", entry)
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.Kind == "dynamic-import" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, p.publicURL(imp.Path))

		if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
			p.addDependencies(chunkInfo, scripts, visited)
		}
	}
}

// styles returns the css bundles produced for the named entries, in order.
func (p *Pipeline) styles(entries []string) []string {
	var out []string
	for _, entry := range entries {
		for _, info := range p.metadata.Outputs {
			if info.EntryPoint == entryNamespace+":"+entry && info.CSSBundle != "" {
				out = append(out, p.publicURL(info.CSSBundle))
			}
		}
	}
	return out
}

// publicURL maps a metafile output path, relative to the project root, to the
// URL it is served from.
func (p *Pipeline) publicURL(outputPath string) string {
	d := p.config.Description
	abs := outputPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.config.Root, outputPath)
	}
	rel, err := filepath.Rel(d.Output.Path, abs)
	if err != nil {
		rel = outputPath
	}
	return strings.TrimSuffix(d.Output.PublicPath, "/") + "/" + filepath.ToSlash(rel)
}

// entryOrder lists vendor bundles ahead of the app so shared libraries load first.
func entryOrder(entries bundle.EntryMap) []string {
	var names []string
	for name := range entries {
		if name != "app" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	if _, ok := entries["app"]; ok {
		names = append(names, "app")
	}
	return names
}

// copyFile copies a file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
