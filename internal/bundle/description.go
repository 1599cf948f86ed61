package bundle

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Description is the complete build configuration handed to the bundling engine.
type Description struct {
	Mode           Mode          `json:"mode" yaml:"mode"`
	Entries        EntryMap      `json:"entry" yaml:"entry"`
	Output         Output        `json:"output" yaml:"output"`
	Optimization   Optimization  `json:"optimization" yaml:"optimization"`
	Devtool        Devtool       `json:"devtool" yaml:"devtool"`
	Resolve        Resolve       `json:"resolve" yaml:"resolve"`
	DevServer      *DevServer    `json:"devServer,omitempty" yaml:"devServer,omitempty"`
	Rules          []ModuleRule  `json:"rules" yaml:"rules"`
	Plugins        []Plugin      `json:"plugins" yaml:"plugins"`
	AssetCopyRules []CopyPattern `json:"assetCopyRules" yaml:"assetCopyRules"`
	Performance    bool          `json:"performance" yaml:"performance"`
}

// DevServerSpec returns the dev server block and whether one is present.
func (d Description) DevServerSpec() (DevServer, bool) {
	if d.DevServer == nil {
		return DevServer{}, false
	}
	return *d.DevServer, true
}

// Plugin returns the first plugin of the given kind.
func (d Description) Plugin(kind PluginKind) (Plugin, bool) {
	for _, p := range d.Plugins {
		if p.Kind == kind {
			return p, true
		}
	}
	return Plugin{}, false
}

// EntryMap maps a bundle name to the ordered modules it starts from.
type EntryMap map[string][]string

// Output describes where and under which names bundles are written.
type Output struct {
	Path          string `json:"path" yaml:"path"`
	Filename      string `json:"filename" yaml:"filename"`
	ChunkFilename string `json:"chunkFilename" yaml:"chunkFilename"`
	PublicPath    string `json:"publicPath" yaml:"publicPath"`
}

// Optimization holds code splitting and runtime chunk settings.
type Optimization struct {
	ModuleIDs    string              `json:"moduleIds" yaml:"moduleIds"`
	SplitChunks  Toggle[SplitChunks] `json:"splitChunks" yaml:"splitChunks"`
	RuntimeChunk RuntimeChunk        `json:"runtimeChunk" yaml:"runtimeChunk"`
}

// SplitChunks groups modules into shared chunks.
type SplitChunks struct {
	CacheGroups map[string]CacheGroup `json:"cacheGroups" yaml:"cacheGroups"`
}

// CacheGroup selects modules by path pattern into one split chunk. An empty
// Name lets the engine derive a name, which is encoded as false.
type CacheGroup struct {
	Test   string `json:"test" yaml:"test"`
	Name   string `json:"-" yaml:"-"`
	Chunks string `json:"chunks" yaml:"chunks"`
}

// Matches reports whether a module path belongs to the group.
func (g CacheGroup) Matches(modulePath string) bool {
	return regexp.MustCompile(g.Test).MatchString(modulePath)
}

func (g CacheGroup) MarshalJSON() ([]byte, error) {
	type alias CacheGroup
	return json.Marshal(struct {
		alias
		Name any `json:"name"`
	}{alias(g), g.nameValue()})
}

func (g CacheGroup) MarshalYAML() (any, error) {
	return map[string]any{
		"test":   g.Test,
		"name":   g.nameValue(),
		"chunks": g.Chunks,
	}, nil
}

func (g CacheGroup) nameValue() any {
	if g.Name == "" {
		return false
	}
	return g.Name
}

// RuntimeChunk names the per-entry runtime chunk as Prefix followed by the
// entry name.
type RuntimeChunk struct {
	Prefix string `json:"namePrefix" yaml:"namePrefix"`
}

// Name returns the runtime chunk name for an entry point.
func (r RuntimeChunk) Name(entry string) string {
	return r.Prefix + entry
}

// Devtool is the source map verbosity token.
type Devtool string

const (
	DevtoolEvalCheapModule Devtool = "eval-cheap-module-source-map"
	DevtoolNone            Devtool = "none"
)

type Resolve struct {
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// DevServer configures the development HTTP server. It only exists in
// development mode.
type DevServer struct {
	ContentRoot     string      `json:"contentBase" yaml:"contentBase"`
	Compress        bool        `json:"compress" yaml:"compress"`
	WriteToDisk     bool        `json:"writeToDisk" yaml:"writeToDisk"`
	Host            string      `json:"host" yaml:"host"`
	Port            int         `json:"port" yaml:"port"`
	Proxy           []ProxyRule `json:"proxy" yaml:"proxy"`
	HistoryFallback bool        `json:"historyApiFallback" yaml:"historyApiFallback"`
}

// ProxyRule forwards requests under Context to Target.
type ProxyRule struct {
	Context      string `json:"context" yaml:"context"`
	Target       string `json:"target" yaml:"target"`
	ChangeOrigin bool   `json:"changeOrigin" yaml:"changeOrigin"`
}

// Matches reports whether a request path is covered by the rule.
func (p ProxyRule) Matches(path string) bool {
	return strings.HasPrefix(path, p.Context)
}

// ModuleRule routes files matching Test through a loader chain.
type ModuleRule struct {
	Test            string   `json:"test" yaml:"test"`
	CaseInsensitive bool     `json:"caseInsensitive,omitempty" yaml:"caseInsensitive,omitempty"`
	Include         []string `json:"include,omitempty" yaml:"include,omitempty"`
	Enforce         string   `json:"enforce,omitempty" yaml:"enforce,omitempty"`
	Loaders         []string `json:"use" yaml:"use"`
}

// Matches reports whether a file name is handled by the rule.
func (r ModuleRule) Matches(name string) bool {
	expr := r.Test
	if r.CaseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.MustCompile(expr).MatchString(name)
}

// CopyPattern copies a file verbatim into the output directory.
type CopyPattern struct {
	From             string `json:"from" yaml:"from"`
	To               string `json:"to" yaml:"to"`
	NoErrorOnMissing bool   `json:"noErrorOnMissing" yaml:"noErrorOnMissing"`
}

// FileMatcher matches an output file either by exact Name or by regular
// expression Pattern.
type FileMatcher struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

func (m FileMatcher) Match(file string) bool {
	if m.Name != "" {
		return file == m.Name
	}
	if m.Pattern != "" {
		return regexp.MustCompile(m.Pattern).MatchString(file)
	}
	return false
}

// Toggle is a settings block that is either disabled, encoded as false, or
// enabled with its settings.
type Toggle[T any] struct {
	Enabled  bool
	Settings T
}

func On[T any](settings T) Toggle[T] {
	return Toggle[T]{Enabled: true, Settings: settings}
}

func Off[T any]() Toggle[T] {
	return Toggle[T]{}
}

// Get returns the settings and whether the block is enabled.
func (t Toggle[T]) Get() (T, bool) {
	return t.Settings, t.Enabled
}

func (t Toggle[T]) MarshalJSON() ([]byte, error) {
	if !t.Enabled {
		return []byte("false"), nil
	}
	return json.Marshal(t.Settings)
}

func (t Toggle[T]) MarshalYAML() (any, error) {
	if !t.Enabled {
		return false, nil
	}
	return t.Settings, nil
}
