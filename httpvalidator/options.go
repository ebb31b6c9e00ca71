package httpvalidator

import (
	"fmt"
	"net/http"

	"github.com/erraggy/oasgate/parser"
)

// Option is a functional option for configuring validation.
type Option func(*config) error

// config holds the configuration for validation operations.
type config struct {
	// Spec source (one of these must be set)
	filePath string
	parsed   *parser.ParseResult

	// Validation behavior
	includeWarnings bool
	strictMode      bool
	failFast        bool
	query           QueryOptions

	// Resource limits
	maxBodySize int64
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		includeWarnings: true,
	}
}

// WithFilePath sets the path to the OpenAPI specification file.
// The file will be parsed automatically.
func WithFilePath(path string) Option {
	return func(c *config) error {
		c.filePath = path
		return nil
	}
}

// WithParsed uses a pre-parsed OpenAPI specification.
func WithParsed(result *parser.ParseResult) Option {
	return func(c *config) error {
		if result == nil {
			return fmt.Errorf("httpvalidator: parsed result cannot be nil")
		}
		c.parsed = result
		return nil
	}
}

// WithIncludeWarnings sets whether to include warnings. Default is true.
func WithIncludeWarnings(include bool) Option {
	return func(c *config) error {
		c.includeWarnings = include
		return nil
	}
}

// WithStrictMode enables stricter validation. See Validator.StrictMode.
// Default is false.
func WithStrictMode(strict bool) Option {
	return func(c *config) error {
		c.strictMode = strict
		return nil
	}
}

// WithFailFast stops request validation at the first failing location.
func WithFailFast(failFast bool) Option {
	return func(c *config) error {
		c.failFast = failFast
		return nil
	}
}

// WithQueryOptions sets query string parsing options.
func WithQueryOptions(opts QueryOptions) Option {
	return func(c *config) error {
		c.query = opts
		return nil
	}
}

// WithMaxBodySize sets the maximum request/response body size in bytes.
// Default: 10 MiB.
func WithMaxBodySize(n int64) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("httpvalidator: maxBodySize cannot be negative")
		}
		c.maxBodySize = n
		return nil
	}
}

// NewWithOptions builds a Validator from functional options.
//
// Example:
//
//	v, err := httpvalidator.NewWithOptions(
//	    httpvalidator.WithFilePath("openapi.yaml"),
//	    httpvalidator.WithStrictMode(true),
//	)
func NewWithOptions(opts ...Option) (*Validator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	parsed, err := getParsedSpec(cfg)
	if err != nil {
		return nil, err
	}
	v, err := New(parsed)
	if err != nil {
		return nil, err
	}

	v.IncludeWarnings = cfg.includeWarnings
	v.StrictMode = cfg.strictMode
	v.FailFast = cfg.failFast
	v.Query = cfg.query
	v.MaxBodySize = cfg.maxBodySize
	return v, nil
}

// ValidateRequestWithOptions validates an HTTP request against an OpenAPI
// specification using functional options.
//
// This is a convenience function for one-off validations. For validating
// multiple requests, create a reusable Validator with New or NewWithOptions.
func ValidateRequestWithOptions(req *http.Request, opts ...Option) (*RequestValidationResult, error) {
	v, err := NewWithOptions(opts...)
	if err != nil {
		return nil, err
	}
	return v.ValidateRequest(req)
}

// ValidateResponseDataWithOptions validates captured response parts using
// functional options.
func ValidateResponseDataWithOptions(req *http.Request, statusCode int, headers http.Header, body []byte, opts ...Option) (*ResponseValidationResult, error) {
	v, err := NewWithOptions(opts...)
	if err != nil {
		return nil, err
	}
	return v.ValidateResponseData(req, statusCode, headers, body)
}

// getParsedSpec returns the parsed specification from config.
func getParsedSpec(cfg *config) (*parser.ParseResult, error) {
	if cfg.parsed != nil {
		return cfg.parsed, nil
	}
	if cfg.filePath != "" {
		return parser.ParseWithOptions(parser.WithFilePath(cfg.filePath))
	}
	return nil, fmt.Errorf("httpvalidator: no specification provided (use WithFilePath or WithParsed)")
}
