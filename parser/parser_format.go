package parser

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/erraggy/oasgate/oaserrors"
)

// SourceFormat represents the format of the source document.
type SourceFormat string

const (
	// SourceFormatYAML indicates the source was in YAML format
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatJSON indicates the source was in JSON format
	SourceFormatJSON SourceFormat = "json"
	// SourceFormatObject indicates the source was an in-memory object
	SourceFormatObject SourceFormat = "object"
	// SourceFormatUnknown indicates the source format could not be determined
	SourceFormatUnknown SourceFormat = "unknown"
)

// DetectFormatFromPath detects the source format from a file extension.
// Only .json, .yaml and .yml are recognized; anything else yields an
// *oaserrors.UnsupportedFormatError.
func DetectFormatFromPath(path string) (SourceFormat, error) {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".json":
		return SourceFormatJSON, nil
	case ".yaml", ".yml":
		return SourceFormatYAML, nil
	default:
		return SourceFormatUnknown, &oaserrors.UnsupportedFormatError{Path: path, Extension: ext}
	}
}

// detectFormatFromContent attempts to detect the format from the content bytes.
// JSON documents start with '{', everything else is treated as YAML.
func detectFormatFromContent(data []byte) SourceFormat {
	trimmed := bytes.TrimLeft(data, " \t\n\r")
	if len(trimmed) == 0 {
		return SourceFormatUnknown
	}
	if trimmed[0] == '{' {
		return SourceFormatJSON
	}
	return SourceFormatYAML
}
