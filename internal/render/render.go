package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/wolfeidau/carebundle/internal/bundle"
	"gopkg.in/yaml.v3"
)

// Format is an encoding for a build description.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat indicates the requested encoding is not supported
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported encodings.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML}
}

// Write encodes d to w in the given format.
func Write(w io.Writer, d bundle.Description, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
