package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wolfeidau/carebundle/internal/bundle"
)

// PrecacheManifestFile is written to the output directory in production builds.
const PrecacheManifestFile = "precache-manifest.json"

// PrecacheEntry is one file the service worker fetches on install.
type PrecacheEntry struct {
	URL      string `json:"url"`
	Revision string `json:"revision"`
}

// PrecacheManifest is consumed by the service worker generator.
type PrecacheManifest struct {
	ClientsClaim bool            `json:"clientsClaim"`
	SkipWaiting  bool            `json:"skipWaiting"`
	Entries      []PrecacheEntry `json:"entries"`
}

// writePrecacheManifest lists every output file the options allow and returns
// how many were included.
func (p *Pipeline) writePrecacheManifest(opts bundle.GenerateSWOptions) (int, error) {
	d := p.config.Description
	manifest := PrecacheManifest{
		ClientsClaim: opts.ClientsClaim,
		SkipWaiting:  opts.SkipWaiting,
		Entries:      []PrecacheEntry{},
	}

	err := filepath.WalkDir(d.Output.Path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(d.Output.Path, path)
		if err != nil {
			return err
		}
		if rel == PrecacheManifestFile {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		if !opts.Precaches(rel, info.Size()) {
			return nil
		}

		revision, err := hashFile(path)
		if err != nil {
			return err
		}
		manifest.Entries = append(manifest.Entries, PrecacheEntry{
			URL:      p.publicURL(path),
			Revision: revision[:16],
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(d.Output.Path, PrecacheManifestFile), data, 0644); err != nil {
		return 0, err
	}

	return len(manifest.Entries), nil
}

// hashFile returns the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
