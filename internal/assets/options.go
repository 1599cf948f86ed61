package assets

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/carebundle/internal/bundle"
)

const entryNamespace = "carebundle-entry"

// assetExtensions are probed against file-loader rules to build the loader map.
var assetExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff", ".woff2", ".ttf"}

// Options translates the build description into esbuild build options.
func (p *Pipeline) Options() api.BuildOptions {
	d := p.config.Description
	minify := !d.Mode.IsDev()
	_, splitting := d.Optimization.SplitChunks.Get()

	return api.BuildOptions{
		EntryPointsAdvanced: entryPoints(d.Entries),
		AbsWorkingDir:       p.config.Root,
		Bundle:              true,
		Splitting:           splitting,
		Write:               true,
		JSX:                 api.JSXAutomatic,
		Outdir:              d.Output.Path,
		PublicPath:          d.Output.PublicPath,
		EntryNames:          outputNames(d.Output.Filename),
		ChunkNames:          outputNames(d.Output.ChunkFilename),
		Format:              api.FormatESModule,
		MinifyWhitespace:    minify,
		MinifyIdentifiers:   minify,
		MinifySyntax:        minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           sourceMap(d.Devtool),
		Define: map[string]string{
			"process.env.NODE_ENV": strconv.Quote(d.Mode.String()),
		},
		ResolveExtensions: d.Resolve.Extensions,
		Loader:            loaders(d.Rules),
		Metafile:          true,
		LogLevel:          api.LogLevelSilent,
		Plugins:           []api.Plugin{entryPlugin(d.Entries, p.config.Root)},
	}
}

func entryPoints(entries bundle.EntryMap) []api.EntryPoint {
	names := slices.Sorted(maps.Keys(entries))
	out := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		out = append(out, api.EntryPoint{
			InputPath:  entryNamespace + ":" + name,
			OutputPath: name,
		})
	}
	return out
}

// entryPlugin resolves each named entry to a virtual module importing all of
// its modules in order. The webpack hot reload client has no esbuild
// counterpart and is left out.
func entryPlugin(entries bundle.EntryMap, root string) api.Plugin {
	return api.Plugin{
		Name: entryNamespace,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + entryNamespace + ":"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimPrefix(args.Path, entryNamespace+":"),
						Namespace: entryNamespace,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: entryNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					modules, ok := entries[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("unknown entry %q", args.Path)
					}
					contents := entrySource(modules)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: root,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}

func entrySource(modules []string) string {
	var b strings.Builder
	var names []string
	for _, m := range modules {
		if m == bundle.HotReloadClient {
			continue
		}
		name := fmt.Sprintf("m%d", len(names))
		names = append(names, name)
		fmt.Fprintf(&b, "import * as %s from %s;\n", name, strconv.Quote(m))
	}
	if len(names) > 0 {
		fmt.Fprintf(&b, "export { %s };\n", strings.Join(names, ", "))
	}
	return b.String()
}

// outputNames converts a webpack filename pattern into an esbuild name
// template. esbuild appends the extension itself and needs [name] to keep
// entries apart.
func outputNames(pattern string) string {
	name := strings.TrimSuffix(pattern, path.Ext(pattern))
	name = strings.NewReplacer("[chunkhash]", "[hash]", "[contenthash]", "[hash]").Replace(name)
	if !strings.Contains(name, "[name]") {
		dir, file := path.Split(name)
		name = dir + "[name]." + file
	}
	return name
}

func sourceMap(devtool bundle.Devtool) api.SourceMap {
	switch {
	case devtool == bundle.DevtoolNone || devtool == "":
		return api.SourceMapNone
	case strings.HasPrefix(string(devtool), "eval"), strings.Contains(string(devtool), "inline"):
		return api.SourceMapInline
	default:
		return api.SourceMapLinked
	}
}

func loaders(rules []bundle.ModuleRule) map[string]api.Loader {
	out := map[string]api.Loader{}
	for _, rule := range rules {
		if !slices.Contains(rule.Loaders, "file-loader") {
			continue
		}
		for _, ext := range assetExtensions {
			if rule.Matches("asset" + ext) {
				out[ext] = api.LoaderFile
			}
		}
	}
	return out
}
