package bundle

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnv = Env{Root: "/srv/care"}

func TestBuild_developmentModes(t *testing.T) {
	for _, mode := range []string{"", "development", "prod", "PRODUCTION", "test"} {
		t.Run("mode="+mode, func(t *testing.T) {
			d := Build(testEnv, Args{Mode: mode})

			require.Equal(t, Development, d.Mode)
			require.NotNil(t, d.DevServer)
			require.False(t, d.Optimization.SplitChunks.Enabled)
			require.Equal(t, []string{"./src/index.tsx", HotReloadClient}, d.Entries["app"])
			require.Equal(t, DevtoolEvalCheapModule, d.Devtool)
			require.NoError(t, d.Validate())
		})
	}
}

func TestBuild_production(t *testing.T) {
	d := Build(testEnv, Args{Mode: "production"})

	require.Equal(t, Production, d.Mode)
	require.Nil(t, d.DevServer)
	_, ok := d.DevServerSpec()
	require.False(t, ok)

	require.Equal(t, []string{"./src/index.tsx"}, d.Entries["app"])
	require.Equal(t, DevtoolNone, d.Devtool)

	split, ok := d.Optimization.SplitChunks.Get()
	require.True(t, ok)
	require.Len(t, split.CacheGroups, 1)
	commons, ok := split.CacheGroups["commons"]
	require.True(t, ok)
	assert.Equal(t, NodeModulesPattern, commons.Test)
	assert.Equal(t, "all", commons.Chunks)
	assert.Empty(t, commons.Name)

	var precache []Plugin
	for _, p := range d.Plugins {
		if p.Kind == PluginGenerateSW {
			precache = append(precache, p)
		}
	}
	require.Len(t, precache, 1)
	opts, ok := precache[0].Options.(GenerateSWOptions)
	require.True(t, ok)
	assert.True(t, opts.ClientsClaim)
	assert.True(t, opts.SkipWaiting)
	assert.Equal(t, int64(7340032), opts.MaximumFileSizeToCacheInBytes)
	assert.Equal(t, []FileMatcher{{Name: "build-meta.json"}, {Pattern: `\.map$`}}, opts.Exclude)

	require.NoError(t, d.Validate())
}

func TestBuild_commonsGroupMatchesPackageTree(t *testing.T) {
	d := Build(testEnv, Args{Mode: "production"})
	commons := d.Optimization.SplitChunks.Settings.CacheGroups["commons"]

	tests := []struct {
		path     string
		expected bool
	}{
		{path: "/srv/care/node_modules/react/index.js", expected: true},
		{path: `C:\care\node_modules\react-dom\index.js`, expected: true},
		{path: "/srv/care/src/index.tsx", expected: false},
		{path: "/srv/care/src/node_modules_list.ts", expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.expected, commons.Matches(tt.path))
		})
	}
}

func TestBuild_idempotent(t *testing.T) {
	for _, mode := range []string{"", "production"} {
		first := Build(testEnv, Args{Mode: mode})
		second := Build(testEnv, Args{Mode: mode})
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("mode %q: descriptions differ (-first +second):\n%s", mode, diff)
		}
	}
}

func TestBuild_defaultEqualsExplicitDevelopment(t *testing.T) {
	implicit := Build(testEnv, Args{})
	explicit := Build(testEnv, Args{Mode: "development"})
	if diff := cmp.Diff(explicit, implicit); diff != "" {
		t.Errorf("default mode differs from development (-explicit +implicit):\n%s", diff)
	}
}

func TestBuild_outputFilenamesDifferByMode(t *testing.T) {
	dev := Build(testEnv, Args{Mode: "development"})
	prod := Build(testEnv, Args{Mode: "production"})

	require.NotEqual(t, dev.Output.Filename, prod.Output.Filename)
	require.Contains(t, dev.Output.Filename, "[hash]")
	require.Contains(t, prod.Output.Filename, "[hash]")
	require.Contains(t, prod.Output.Filename, "prod")

	devCSS, _ := dev.Plugin(PluginMiniCSSExtract)
	prodCSS, _ := prod.Plugin(PluginMiniCSSExtract)
	require.NotEqual(t, devCSS.Options, prodCSS.Options)
}

func TestBuild_buildMetaToleration(t *testing.T) {
	tests := []struct {
		mode     string
		expected bool
	}{
		{mode: "", expected: true},
		{mode: "development", expected: true},
		{mode: "production", expected: false},
	}

	for _, tt := range tests {
		t.Run("mode="+tt.mode, func(t *testing.T) {
			d := Build(testEnv, Args{Mode: tt.mode})

			var found bool
			for _, rule := range d.AssetCopyRules {
				if rule.To == "build-meta.json" {
					found = true
					require.Equal(t, tt.expected, rule.NoErrorOnMissing)
					continue
				}
				require.False(t, rule.NoErrorOnMissing, "only build metadata may be missing: %s", rule.From)
			}
			require.True(t, found)

			p, ok := d.Plugin(PluginCopy)
			require.True(t, ok)
			require.Equal(t, CopyOptions{Patterns: d.AssetCopyRules}, p.Options)
		})
	}
}

func TestBuild_devServer(t *testing.T) {
	d := Build(testEnv, Args{})

	ds, ok := d.DevServerSpec()
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/srv/care", "dist"), ds.ContentRoot)
	assert.True(t, ds.Compress)
	assert.True(t, ds.WriteToDisk)
	assert.Equal(t, "0.0.0.0", ds.Host)
	assert.Equal(t, 4000, ds.Port)
	assert.True(t, ds.HistoryFallback)
	require.Equal(t, []ProxyRule{
		{Context: "/api", Target: "https://careapi.coronasafe.in/", ChangeOrigin: true},
	}, ds.Proxy)
	assert.True(t, ds.Proxy[0].Matches("/api/v1/facility"))
	assert.False(t, ds.Proxy[0].Matches("/facility"))
}

func TestBuild_pluginOrder(t *testing.T) {
	kinds := func(d Description) []PluginKind {
		var out []PluginKind
		for _, p := range d.Plugins {
			out = append(out, p.Kind)
		}
		return out
	}

	base := []PluginKind{
		PluginCopy,
		PluginClean,
		PluginHTML,
		PluginOptimizeCSS,
		PluginHotModuleReplacement,
		PluginMomentLocales,
		PluginMiniCSSExtract,
	}

	require.Equal(t, base, kinds(Build(testEnv, Args{})))
	require.Equal(t, append(base, PluginGenerateSW), kinds(Build(testEnv, Args{Mode: "production"})))
}

func TestBuild_htmlMinify(t *testing.T) {
	dev, _ := Build(testEnv, Args{}).Plugin(PluginHTML)
	prod, _ := Build(testEnv, Args{Mode: "production"}).Plugin(PluginHTML)

	devOpts := dev.Options.(HTMLOptions)
	prodOpts := prod.Options.(HTMLOptions)

	require.False(t, devOpts.Minify.Enabled)
	require.True(t, prodOpts.Minify.Enabled)
	require.Equal(t, "Coronasafe Care", prodOpts.Title)
	require.Equal(t, filepath.Join("/srv/care", "src", "index.html"), prodOpts.Template)

	m := prodOpts.Minify.Settings
	require.True(t, m.RemoveComments && m.CollapseWhitespace && m.MinifyJS && m.MinifyCSS && m.MinifyURLs)
}

func TestBuild_runtimeChunkName(t *testing.T) {
	d := Build(testEnv, Args{Mode: "production"})
	require.Equal(t, "runtime-app", d.Optimization.RuntimeChunk.Name("app"))
	require.Equal(t, "runtime-vendor", d.Optimization.RuntimeChunk.Name("vendor"))
}

func TestBuild_moduleRules(t *testing.T) {
	d := Build(testEnv, Args{})
	require.Len(t, d.Rules, 4)

	assert.True(t, d.Rules[0].Matches("src/App.tsx"))
	assert.False(t, d.Rules[0].Matches("src/App.js"))
	assert.Equal(t, "pre", d.Rules[1].Enforce)
	assert.True(t, d.Rules[2].Matches("styles/index.scss"))
	assert.True(t, d.Rules[3].Matches("logo.PNG"))
	assert.True(t, d.Rules[3].Matches("photo.jpeg"))
}

func TestDescription_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Description)
		mode   string
		err    error
	}{
		{
			name:   "empty app entry",
			mutate: func(d *Description) { d.Entries["app"] = nil },
			err:    ErrEmptyAppEntry,
		},
		{
			name:   "splitting in development",
			mutate: func(d *Description) { d.Optimization.SplitChunks.Enabled = true },
			err:    ErrSplittingInDevelopment,
		},
		{
			name: "precache in development",
			mutate: func(d *Description) {
				d.Plugins = append(d.Plugins, Plugin{Kind: PluginGenerateSW})
			},
			err: ErrPrecacheInDevelopment,
		},
		{
			name:   "dev server in production",
			mode:   "production",
			mutate: func(d *Description) { d.DevServer = &DevServer{} },
			err:    ErrDevServerInProduction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Build(testEnv, Args{Mode: tt.mode})
			tt.mutate(&d)
			require.ErrorIs(t, d.Validate(), tt.err)
		})
	}
}

func TestGenerateSWOptions_Precaches(t *testing.T) {
	p, ok := Build(testEnv, Args{Mode: "production"}).Plugin(PluginGenerateSW)
	require.True(t, ok)
	opts := p.Options.(GenerateSWOptions)

	tests := []struct {
		file     string
		size     int64
		expected bool
	}{
		{file: "js/app.bundle.prod.abc.js", size: 1024, expected: true},
		{file: "js/app.bundle.prod.abc.js.map", size: 1024, expected: false},
		{file: "build-meta.json", size: 64, expected: false},
		{file: "assets/build-meta.json.bak", size: 64, expected: true},
		{file: "index.html", size: PrecacheMaxFileSize, expected: true},
		{file: "video.mp4", size: PrecacheMaxFileSize + 1, expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			require.Equal(t, tt.expected, opts.Precaches(tt.file, tt.size))
		})
	}
}
