package gateway

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasgate/httpvalidator"
	"github.com/erraggy/oasgate/oaserrors"
	"github.com/erraggy/oasgate/parser"
)

// Config is the file form of the gateway options. Zero values leave the
// defaults in place.
//
//	document: ./openapi.yaml
//	specEndpoint: /openapi.json
//	validateResponse: true
//	validatePathPrefixes: [/api]
//	query:
//	  maxParams: 200
type Config struct {
	// Document is the path of the OpenAPI document. A relative path read by
	// LoadConfigFile is resolved against the config file's directory.
	Document string `yaml:"document" json:"document"`

	SpecEndpoint     string `yaml:"specEndpoint,omitempty" json:"specEndpoint,omitempty"`
	UIEndpoint       string `yaml:"uiEndpoint,omitempty" json:"uiEndpoint,omitempty"`
	EnableUI         *bool  `yaml:"enableUi,omitempty" json:"enableUi,omitempty"`
	UIBundleBasePath string `yaml:"uiBundleBasePath,omitempty" json:"uiBundleBasePath,omitempty"`

	ValidateResponse     bool     `yaml:"validateResponse,omitempty" json:"validateResponse,omitempty"`
	ValidatePathPrefixes []string `yaml:"validatePathPrefixes,omitempty" json:"validatePathPrefixes,omitempty"`
	RejectUnknownRoutes  bool     `yaml:"rejectUnknownRoutes,omitempty" json:"rejectUnknownRoutes,omitempty"`

	Query       httpvalidator.QueryOptions `yaml:"query,omitempty" json:"query,omitempty"`
	Strict      bool                       `yaml:"strict,omitempty" json:"strict,omitempty"`
	FailFast    bool                       `yaml:"failFast,omitempty" json:"failFast,omitempty"`
	MaxBodySize int64                      `yaml:"maxBodySize,omitempty" json:"maxBodySize,omitempty"`
}

// LoadConfigFile reads a YAML or JSON config file. The extension decides the
// format, with the same rules as document files.
func LoadConfigFile(path string) (*Config, error) {
	if _, err := parser.DetectFormatFromPath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to read config: %w", err)
	}

	// yaml.Unmarshal handles both YAML and JSON
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &oaserrors.ConfigError{Option: "config", Value: path, Message: "cannot decode file", Cause: err}
	}
	if cfg.Document != "" && !filepath.IsAbs(cfg.Document) {
		cfg.Document = filepath.Join(filepath.Dir(path), cfg.Document)
	}
	return &cfg, nil
}

// Options converts the non-zero settings to options.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Document != "" {
		opts = append(opts, WithDocumentFile(c.Document))
	}
	if c.SpecEndpoint != "" {
		opts = append(opts, WithSpecEndpoint(c.SpecEndpoint))
	}
	if c.UIEndpoint != "" {
		opts = append(opts, WithUIEndpoint(c.UIEndpoint))
	}
	if c.EnableUI != nil {
		opts = append(opts, WithUI(*c.EnableUI))
	}
	if c.UIBundleBasePath != "" {
		opts = append(opts, WithUIBundleBasePath(c.UIBundleBasePath))
	}
	if c.ValidateResponse {
		opts = append(opts, WithValidateResponse(true))
	}
	if len(c.ValidatePathPrefixes) > 0 {
		opts = append(opts, WithValidatePathPrefixes(c.ValidatePathPrefixes...))
	}
	if c.RejectUnknownRoutes {
		opts = append(opts, WithRejectUnknownRoutes(true))
	}
	if c.Query != (httpvalidator.QueryOptions{}) {
		opts = append(opts, WithQueryParseOptions(c.Query))
	}
	if c.Strict {
		opts = append(opts, WithStrictMode(true))
	}
	if c.FailFast {
		opts = append(opts, WithFailFast(true))
	}
	if c.MaxBodySize != 0 {
		opts = append(opts, WithMaxBodySize(c.MaxBodySize))
	}
	return opts
}
