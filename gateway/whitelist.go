package gateway

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/erraggy/oasgate/oaserrors"
)

// pathWhitelist decides which request paths are validated. Plain entries
// match by prefix; entries with glob metacharacters match as doublestar
// patterns.
type pathWhitelist struct {
	prefixes []string
	patterns []string
}

func isPattern(entry string) bool {
	return strings.ContainsAny(entry, "*?[{")
}

func newPathWhitelist(entries []string) (*pathWhitelist, error) {
	w := &pathWhitelist{}
	for _, entry := range entries {
		if !strings.HasPrefix(entry, "/") {
			return nil, &oaserrors.ConfigError{Option: "validatePathPrefixes", Value: entry, Message: "must start with /"}
		}
		if !isPattern(entry) {
			w.prefixes = append(w.prefixes, entry)
			continue
		}
		if !doublestar.ValidatePattern(entry) {
			return nil, &oaserrors.ConfigError{Option: "validatePathPrefixes", Value: entry, Message: "invalid glob pattern"}
		}
		w.patterns = append(w.patterns, entry)
	}
	return w, nil
}

// Allows reports whether path is subject to validation.
func (w *pathWhitelist) Allows(path string) bool {
	for _, p := range w.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
