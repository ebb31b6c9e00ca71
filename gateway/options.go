package gateway

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/erraggy/oasgate/httpvalidator"
	"github.com/erraggy/oasgate/oaserrors"
	"github.com/erraggy/oasgate/parser"
)

// Defaults applied by New.
const (
	DefaultSpecEndpoint     = "/openapi.json"
	DefaultUIEndpoint       = "/openapi.html"
	DefaultUIBundleBasePath = "https://unpkg.com/swagger-ui-dist@5"
	DefaultMaxBodySize      = httpvalidator.DefaultMaxBodySize
)

// Option is a functional option for configuring a Gateway.
type Option func(*config) error

// config holds the normalized gateway configuration.
type config struct {
	// Document source (one of these must be set)
	documentFile string
	document     map[string]any
	parsed       *parser.ParseResult

	specEndpoint     string
	uiEndpoint       string
	enableUI         bool
	uiBundleBasePath string

	validateResponse    bool
	prefixes            []string
	rejectUnknownRoutes bool

	errorHandler ErrorHandler
	decoders     map[string]BodyDecoder

	query       httpvalidator.QueryOptions
	strict      bool
	failFast    bool
	maxBodySize int64

	logger         parser.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		specEndpoint:     DefaultSpecEndpoint,
		uiEndpoint:       DefaultUIEndpoint,
		enableUI:         true,
		uiBundleBasePath: DefaultUIBundleBasePath,
		prefixes:         []string{"/"},
		errorHandler:     DefaultErrorHandler,
		decoders:         DefaultBodyDecoders(),
		maxBodySize:      DefaultMaxBodySize,
		logger:           parser.NopLogger{},
	}
}

// hasDocument reports whether a document source was configured.
func (c *config) hasDocument() bool {
	return c.documentFile != "" || c.document != nil || c.parsed != nil
}

func (c *config) documentSources() int {
	n := 0
	for _, set := range []bool{c.documentFile != "", c.document != nil, c.parsed != nil} {
		if set {
			n++
		}
	}
	return n
}

// validate checks settings that individual options cannot check alone.
func (c *config) validate() error {
	if !c.hasDocument() {
		return oaserrors.NewMissingDocumentError()
	}
	if c.documentSources() > 1 {
		return &oaserrors.ConfigError{
			Option:  "document",
			Message: "only one of WithDocumentFile, WithDocument or WithParsed may be used",
		}
	}
	if c.enableUI && c.specEndpoint == c.uiEndpoint {
		return &oaserrors.ConfigError{
			Option:  "uiEndpoint",
			Value:   c.uiEndpoint,
			Message: "must differ from the spec endpoint",
		}
	}
	return nil
}

func endpointOption(name string, target *string, path string) error {
	if !strings.HasPrefix(path, "/") {
		return &oaserrors.ConfigError{Option: name, Value: path, Message: "must start with /"}
	}
	*target = path
	return nil
}

// WithDocumentFile loads the document from a .json, .yaml or .yml file.
func WithDocumentFile(path string) Option {
	return func(c *config) error {
		if path == "" {
			return &oaserrors.ConfigError{Option: "document", Message: "file path cannot be empty"}
		}
		c.documentFile = path
		return nil
	}
}

// WithDocument uses an in-memory document object.
func WithDocument(doc map[string]any) Option {
	return func(c *config) error {
		if doc == nil {
			return &oaserrors.ConfigError{Option: "document", Message: "document object cannot be nil"}
		}
		c.document = doc
		return nil
	}
}

// WithParsed uses an already parsed document.
func WithParsed(result *parser.ParseResult) Option {
	return func(c *config) error {
		if result == nil {
			return &oaserrors.ConfigError{Option: "document", Message: "parsed result cannot be nil"}
		}
		c.parsed = result
		return nil
	}
}

// WithSpecEndpoint sets the path serving the document as JSON.
// Default is /openapi.json.
func WithSpecEndpoint(path string) Option {
	return func(c *config) error {
		return endpointOption("specEndpoint", &c.specEndpoint, path)
	}
}

// WithUIEndpoint sets the path serving the Swagger UI page.
// Default is /openapi.html.
func WithUIEndpoint(path string) Option {
	return func(c *config) error {
		return endpointOption("uiEndpoint", &c.uiEndpoint, path)
	}
}

// WithUI enables or disables the UI endpoint. Default is true.
func WithUI(enabled bool) Option {
	return func(c *config) error {
		c.enableUI = enabled
		return nil
	}
}

// WithUIBundleBasePath sets where the Swagger UI assets are loaded from.
func WithUIBundleBasePath(base string) Option {
	return func(c *config) error {
		if base == "" {
			return &oaserrors.ConfigError{Option: "uiBundleBasePath", Message: "cannot be empty"}
		}
		c.uiBundleBasePath = strings.TrimRight(base, "/")
		return nil
	}
}

// WithValidateResponse enables response validation. Downstream responses are
// buffered until they pass. Default is false.
func WithValidateResponse(enabled bool) Option {
	return func(c *config) error {
		c.validateResponse = enabled
		return nil
	}
}

// WithValidatePathPrefixes replaces the whitelist of validated paths.
// Entries are plain prefixes ("/api") or doublestar patterns ("/api/*/pets/**").
// Default is ["/"].
func WithValidatePathPrefixes(prefixes ...string) Option {
	return func(c *config) error {
		if len(prefixes) == 0 {
			return &oaserrors.ConfigError{Option: "validatePathPrefixes", Message: "at least one prefix is required"}
		}
		c.prefixes = append([]string(nil), prefixes...)
		return nil
	}
}

// WithRejectUnknownRoutes sends requests that match no operation to the error
// handler (404 or 405) instead of passing them downstream. Default is false.
func WithRejectUnknownRoutes(reject bool) Option {
	return func(c *config) error {
		c.rejectUnknownRoutes = reject
		return nil
	}
}

// WithErrorHandler sets the handler that receives validation failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) error {
		if h == nil {
			return &oaserrors.ConfigError{Option: "errorHandler", Message: "cannot be nil"}
		}
		c.errorHandler = h
		return nil
	}
}

// WithRequestBodyHandler registers a decoder for a media-type key such as
// "application/xml", "application/*" or "*/*". A nil decoder removes the key.
func WithRequestBodyHandler(mediaType string, d BodyDecoder) Option {
	return func(c *config) error {
		key, err := httpvalidator.ParseMediaType(mediaType)
		if err != nil {
			return &oaserrors.ConfigError{Option: "requestBodyHandlers", Value: mediaType, Cause: err}
		}
		if d == nil {
			delete(c.decoders, key)
			return nil
		}
		c.decoders[key] = d
		return nil
	}
}

// WithRequestBodyHandlers registers several decoders at once, overriding the
// defaults for the same keys.
func WithRequestBodyHandlers(decoders map[string]BodyDecoder) Option {
	return func(c *config) error {
		for mt, d := range decoders {
			if err := WithRequestBodyHandler(mt, d)(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithQueryParseOptions controls query string parsing.
func WithQueryParseOptions(opts httpvalidator.QueryOptions) Option {
	return func(c *config) error {
		c.query = opts
		return nil
	}
}

// WithStrictMode rejects undeclared query parameters, headers, cookies and
// body content types, and undeclared response statuses.
func WithStrictMode(strict bool) Option {
	return func(c *config) error {
		c.strict = strict
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

// WithMaxBodySize limits the request body read for validation.
// A negative value disables the limit. Default is 10 MiB.
func WithMaxBodySize(n int64) Option {
	return func(c *config) error {
		if n == 0 {
			return &oaserrors.ConfigError{Option: "maxBodySize", Value: n, Message: "cannot be zero"}
		}
		c.maxBodySize = n
		return nil
	}
}

// WithLogger sets the logger. Default is parser.NopLogger.
func WithLogger(l parser.Logger) Option {
	return func(c *config) error {
		if l == nil {
			l = parser.NopLogger{}
		}
		c.logger = l
		return nil
	}
}

// WithMeterProvider sets the meter provider. Default is the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) error {
		c.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the tracer provider. Default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) error {
		c.tracerProvider = tp
		return nil
	}
}

// WithConfig applies every setting of a loaded Config.
func WithConfig(cfg *Config) Option {
	return func(c *config) error {
		if cfg == nil {
			return &oaserrors.ConfigError{Option: "config", Message: "cannot be nil"}
		}
		for _, opt := range cfg.Options() {
			if err := opt(c); err != nil {
				return fmt.Errorf("gateway: applying config: %w", err)
			}
		}
		return nil
	}
}
