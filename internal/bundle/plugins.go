package bundle

import "path/filepath"

// PluginKind tags a plugin descriptor for the engine.
type PluginKind string

const (
	PluginCopy                 PluginKind = "copy"
	PluginClean                PluginKind = "clean"
	PluginHTML                 PluginKind = "html"
	PluginOptimizeCSS          PluginKind = "optimize-css-assets"
	PluginHotModuleReplacement PluginKind = "hot-module-replacement"
	PluginMomentLocales        PluginKind = "moment-locales"
	PluginMiniCSSExtract       PluginKind = "mini-css-extract"
	PluginGenerateSW           PluginKind = "generate-sw"
)

// Plugin is a plugin descriptor with fixed options. Options holds one of the
// *Options types below, or nil for plugins without settings.
type Plugin struct {
	Kind    PluginKind `json:"type" yaml:"type"`
	Options any        `json:"options,omitempty" yaml:"options,omitempty"`
}

type CopyOptions struct {
	Patterns []CopyPattern `json:"patterns" yaml:"patterns"`
}

type HTMLOptions struct {
	Template string             `json:"template" yaml:"template"`
	Title    string             `json:"title" yaml:"title"`
	Minify   Toggle[HTMLMinify] `json:"minify" yaml:"minify"`
}

// HTMLMinify lists the minification passes applied to the generated page.
type HTMLMinify struct {
	RemoveComments                bool `json:"removeComments" yaml:"removeComments"`
	CollapseWhitespace            bool `json:"collapseWhitespace" yaml:"collapseWhitespace"`
	RemoveRedundantAttributes     bool `json:"removeRedundantAttributes" yaml:"removeRedundantAttributes"`
	UseShortDoctype               bool `json:"useShortDoctype" yaml:"useShortDoctype"`
	RemoveEmptyAttributes         bool `json:"removeEmptyAttributes" yaml:"removeEmptyAttributes"`
	RemoveStyleLinkTypeAttributes bool `json:"removeStyleLinkTypeAttributes" yaml:"removeStyleLinkTypeAttributes"`
	KeepClosingSlash              bool `json:"keepClosingSlash" yaml:"keepClosingSlash"`
	MinifyJS                      bool `json:"minifyJS" yaml:"minifyJS"`
	MinifyCSS                     bool `json:"minifyCSS" yaml:"minifyCSS"`
	MinifyURLs                    bool `json:"minifyURLs" yaml:"minifyURLs"`
}

type OptimizeCSSOptions struct {
	Parser           string `json:"parser" yaml:"parser"`
	SourceMap        bool   `json:"map" yaml:"map"`
	Preset           string `json:"preset" yaml:"preset"`
	RemoveFontQuotes bool   `json:"minifyFontValuesRemoveQuotes" yaml:"minifyFontValuesRemoveQuotes"`
}

type MiniCSSExtractOptions struct {
	Filename string `json:"filename" yaml:"filename"`
}

// GenerateSWOptions configures service worker precache generation.
type GenerateSWOptions struct {
	ClientsClaim                  bool          `json:"clientsClaim" yaml:"clientsClaim"`
	SkipWaiting                   bool          `json:"skipWaiting" yaml:"skipWaiting"`
	MaximumFileSizeToCacheInBytes int64         `json:"maximumFileSizeToCacheInBytes" yaml:"maximumFileSizeToCacheInBytes"`
	Exclude                       []FileMatcher `json:"exclude" yaml:"exclude"`
}

// Precaches reports whether an output file of the given size belongs in the
// precache manifest.
func (o GenerateSWOptions) Precaches(file string, size int64) bool {
	if size > o.MaximumFileSizeToCacheInBytes {
		return false
	}
	base := filepath.Base(file)
	for _, m := range o.Exclude {
		if m.Match(base) {
			return false
		}
	}
	return true
}

const (
	// PrecacheMaxFileSize is the largest file the service worker precaches.
	PrecacheMaxFileSize int64 = 7340032

	buildMetaFile = "build-meta.json"
	htmlTitle     = "Coronasafe Care"
)

type pluginRule struct {
	when  func(Mode) bool
	build func(Env, Mode) Plugin
}

// pluginRules is evaluated in order; each matching rule contributes one plugin.
var pluginRules = []pluginRule{
	{always, copyPlugin},
	{always, cleanPlugin},
	{always, htmlPlugin},
	{always, optimizeCSSPlugin},
	{always, hotModuleReplacementPlugin},
	{always, momentLocalesPlugin},
	{always, miniCSSExtractPlugin},
	{productionOnly, generateSWPlugin},
}

func always(Mode) bool { return true }

func productionOnly(m Mode) bool { return !m.IsDev() }

func plugins(env Env, mode Mode) []Plugin {
	var out []Plugin
	for _, rule := range pluginRules {
		if rule.when(mode) {
			out = append(out, rule.build(env, mode))
		}
	}
	return out
}

func copyPlugin(_ Env, mode Mode) Plugin {
	return Plugin{Kind: PluginCopy, Options: CopyOptions{Patterns: assetCopyRules(mode)}}
}

func cleanPlugin(Env, Mode) Plugin {
	return Plugin{Kind: PluginClean}
}

func htmlPlugin(env Env, mode Mode) Plugin {
	minify := Off[HTMLMinify]()
	if !mode.IsDev() {
		minify = On(HTMLMinify{
			RemoveComments:                true,
			CollapseWhitespace:            true,
			RemoveRedundantAttributes:     true,
			UseShortDoctype:               true,
			RemoveEmptyAttributes:         true,
			RemoveStyleLinkTypeAttributes: true,
			KeepClosingSlash:              true,
			MinifyJS:                      true,
			MinifyCSS:                     true,
			MinifyURLs:                    true,
		})
	}
	return Plugin{Kind: PluginHTML, Options: HTMLOptions{
		Template: filepath.Join(env.Root, "src", "index.html"),
		Title:    htmlTitle,
		Minify:   minify,
	}}
}

func optimizeCSSPlugin(Env, Mode) Plugin {
	return Plugin{Kind: PluginOptimizeCSS, Options: OptimizeCSSOptions{
		Parser:           "postcss-safe-parser",
		SourceMap:        false,
		Preset:           "default",
		RemoveFontQuotes: false,
	}}
}

func hotModuleReplacementPlugin(Env, Mode) Plugin {
	return Plugin{Kind: PluginHotModuleReplacement}
}

func momentLocalesPlugin(Env, Mode) Plugin {
	return Plugin{Kind: PluginMomentLocales}
}

func miniCSSExtractPlugin(_ Env, mode Mode) Plugin {
	filename := "css/[name][hash].prod.bundle.css"
	if mode.IsDev() {
		filename = "css/[name][hash].bundle.css"
	}
	return Plugin{Kind: PluginMiniCSSExtract, Options: MiniCSSExtractOptions{Filename: filename}}
}

func generateSWPlugin(Env, Mode) Plugin {
	return Plugin{Kind: PluginGenerateSW, Options: GenerateSWOptions{
		ClientsClaim:                  true,
		SkipWaiting:                   true,
		MaximumFileSizeToCacheInBytes: PrecacheMaxFileSize,
		Exclude: []FileMatcher{
			{Name: buildMetaFile},
			{Pattern: `\.map$`},
		},
	}}
}

func assetCopyRules(mode Mode) []CopyPattern {
	return []CopyPattern{
		{From: "public/manifest.webmanifest", To: "manifest.webmanifest"},
		{From: "public/robots.txt", To: "robots.txt"},
		{From: "public/favicon.ico", To: "favicon.ico"},
		{From: "public/contribute.json", To: "contribute.json"},
		// build-meta.json carries the version of the latest build and is
		// generated by a separate script, so local builds may not have it.
		{From: "public/" + buildMetaFile, To: buildMetaFile, NoErrorOnMissing: mode.IsDev()},
	}
}
