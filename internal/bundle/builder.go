package bundle

import "path/filepath"

const (
	// APIProxyTarget is the upstream the dev server forwards /api requests to.
	APIProxyTarget = "https://careapi.coronasafe.in/"

	DevServerHost = "0.0.0.0"
	DevServerPort = 4000

	// HotReloadClient is appended to the app entry in development.
	HotReloadClient = "webpack-dev-server/client"

	// NodeModulesPattern matches modules that live inside a package tree.
	NodeModulesPattern = `[\\/]node_modules[\\/]`

	devFilename  = "js/bundle.[hash].js"
	prodFilename = "js/bundle.prod.[hash].js"
)

// Env is the build environment the description is anchored to.
type Env struct {
	// Root is the project directory containing src, public and dist.
	Root string
}

// Args are the invocation arguments of a single build.
type Args struct {
	// Mode is the raw mode argument; see ParseMode.
	Mode string
}

// Build assembles the build description for env and args. It is a pure
// function: identical inputs yield identical descriptions.
func Build(env Env, args Args) Description {
	mode := ParseMode(args.Mode)
	dist := filepath.Join(env.Root, "dist")

	d := Description{
		Mode:    mode,
		Entries: entries(mode),
		Output: Output{
			Path:          dist,
			Filename:      cond(mode.IsDev(), devFilename, prodFilename),
			ChunkFilename: "[name].[chunkhash].chunk.js",
			PublicPath:    "/",
		},
		Optimization: Optimization{
			ModuleIDs:    "hashed",
			SplitChunks:  splitChunks(mode),
			RuntimeChunk: RuntimeChunk{Prefix: "runtime-"},
		},
		Devtool: cond(mode.IsDev(), DevtoolEvalCheapModule, DevtoolNone),
		Resolve: Resolve{
			Extensions: []string{".js", ".jsx", ".json", ".ts", ".tsx", ".manifest"},
		},
		Rules:          moduleRules(env),
		Plugins:        plugins(env, mode),
		AssetCopyRules: assetCopyRules(mode),
		Performance:    false,
	}

	if mode.IsDev() {
		d.DevServer = &DevServer{
			ContentRoot: dist,
			Compress:    true,
			WriteToDisk: true,
			Host:        DevServerHost,
			Port:        DevServerPort,
			Proxy: []ProxyRule{
				{Context: "/api", Target: APIProxyTarget, ChangeOrigin: true},
			},
			HistoryFallback: true,
		}
	}

	return d
}

func entries(mode Mode) EntryMap {
	app := []string{"./src/index.tsx"}
	if mode.IsDev() {
		app = append(app, HotReloadClient)
	}
	return EntryMap{
		"vendor": {"react", "react-dom"},
		"app":    app,
	}
}

// splitChunks is disabled in development so incremental rebuilds stay fast.
func splitChunks(mode Mode) Toggle[SplitChunks] {
	if mode.IsDev() {
		return Off[SplitChunks]()
	}
	return On(SplitChunks{
		CacheGroups: map[string]CacheGroup{
			"commons": {Test: NodeModulesPattern, Chunks: "all"},
		},
	})
}

func moduleRules(env Env) []ModuleRule {
	return []ModuleRule{
		{
			Test:    `\.(ts|tsx)$`,
			Include: []string{filepath.Join(env.Root, "src")},
			Loaders: []string{"ts-loader"},
		},
		{
			Test:    `\.js$`,
			Enforce: "pre",
			Loaders: []string{"source-map-loader"},
		},
		{
			Test:    `\.(sa|sc|c)ss$`,
			Loaders: []string{"mini-css-extract-loader", "css-loader", "postcss-loader"},
		},
		{
			Test:            `\.(png|jpe?g|gif)$`,
			CaseInsensitive: true,
			Loaders:         []string{"file-loader"},
		},
	}
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
