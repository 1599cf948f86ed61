package assets

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrMissingAsset indicates a copy source that is required by the build does not exist
	ErrMissingAsset = errors.New("missing required asset")
	// ErrNotBuilt indicates metadata was requested before a build completed
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
	CSSBundle  string       `json:"cssBundle"`
	Bytes      int64        `json:"bytes"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Result summarises a completed build.
type Result struct {
	Duration  time.Duration
	Outputs   []string
	Copied    []string
	Skipped   []string
	Precached int
}

// Pipeline executes a build description with esbuild and runs the post-build
// steps (asset copies, html page, precache manifest).
type Pipeline struct {
	config   Config
	metadata *BuildMetadata
	mu       sync.RWMutex
}

// New creates a new asset pipeline with the given configuration
func New(config Config) *Pipeline {
	return &Pipeline{
		config: config,
	}
}
