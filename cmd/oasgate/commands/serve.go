package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/erraggy/oasgate"
	"github.com/erraggy/oasgate/gateway"
	"github.com/erraggy/oasgate/internal/logging"
	"github.com/erraggy/oasgate/internal/telemetry"
	"github.com/erraggy/oasgate/parser"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// ServeFlags contains flags for the serve command
type ServeFlags struct {
	Spec             string
	Upstream         string
	Listen           string
	Config           string
	Prefixes         []string
	ValidateResponse bool
	RejectUnknown    bool
	Strict           bool
	NoUI             bool
	OTel             bool
	LogLevel         string
	LogFormat        string
}

// NewServeCommand returns the serve command.
func NewServeCommand() *cobra.Command {
	return newServeCommand(&ServeFlags{})
}

func newServeCommand(flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Run the validation gateway in front of an upstream service",
		Long: `Run an HTTP server that validates every request against an OpenAPI
document and forwards valid requests to the upstream service. The document
is served at /openapi.json and a documentation UI at /openapi.html.

Settings from --config are applied first; flags given on the command line
override them.`,
		Example: `  oasgate serve --spec openapi.yaml --upstream http://localhost:9000
  oasgate serve --config gateway.yaml --upstream http://pets:8080 --otel
  oasgate serve --spec swagger.json --upstream http://localhost:9000 --prefix /api --validate-response`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&flags.Spec, "spec", "s", "", "OpenAPI document to validate against")
	fs.StringVarP(&flags.Upstream, "upstream", "u", "", "base URL valid requests are forwarded to")
	fs.StringVarP(&flags.Listen, "listen", "l", ":8080", "address to listen on")
	fs.StringVarP(&flags.Config, "config", "c", "", "gateway configuration file (yaml or json)")
	fs.StringSliceVarP(&flags.Prefixes, "prefix", "p", nil, "only validate paths under this prefix or glob (repeatable)")
	fs.BoolVar(&flags.ValidateResponse, "validate-response", false, "validate upstream responses")
	fs.BoolVar(&flags.RejectUnknown, "reject-unknown", false, "reject requests that match no operation")
	fs.BoolVar(&flags.Strict, "strict", false, "reject undeclared query parameters and headers")
	fs.BoolVar(&flags.NoUI, "no-ui", false, "do not serve the documentation UI")
	fs.BoolVar(&flags.OTel, "otel", false, "export traces and metrics over OTLP gRPC")
	fs.StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, or error")
	fs.StringVar(&flags.LogFormat, "log-format", logging.FormatText, "log format: text or json")
	return cmd
}

// GatewayOptions turns the flags into gateway options. Only flags set on the
// command line are applied, so they layer over the configuration file.
func GatewayOptions(cmd *cobra.Command, flags *ServeFlags, logger *slog.Logger) ([]gateway.Option, error) {
	if flags.Spec == "" && flags.Config == "" {
		return nil, errors.New("serve requires --spec or --config")
	}

	var opts []gateway.Option
	if flags.Config != "" {
		cfg, err := gateway.LoadConfigFile(flags.Config)
		if err != nil {
			return nil, err
		}
		opts = append(opts, gateway.WithConfig(cfg))
	}
	if flags.Spec != "" {
		opts = append(opts, gateway.WithDocumentFile(flags.Spec))
	}

	changed := cmd.Flags().Changed
	if changed("prefix") {
		opts = append(opts, gateway.WithValidatePathPrefixes(flags.Prefixes...))
	}
	if changed("validate-response") {
		opts = append(opts, gateway.WithValidateResponse(flags.ValidateResponse))
	}
	if changed("reject-unknown") {
		opts = append(opts, gateway.WithRejectUnknownRoutes(flags.RejectUnknown))
	}
	if changed("strict") {
		opts = append(opts, gateway.WithStrictMode(flags.Strict))
	}
	if changed("no-ui") {
		opts = append(opts, gateway.WithUI(!flags.NoUI))
	}
	opts = append(opts, gateway.WithLogger(parser.NewSlogAdapter(logger)))
	return opts, nil
}

// ParseUpstream validates the upstream base URL.
func ParseUpstream(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("serve requires --upstream")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q: expected http(s)://host[:port]", raw)
	}
	return u, nil
}

// NewEngine builds the gin engine: recovery, tracing, the gateway, then a
// reverse proxy to upstream for every request the gateway lets through.
func NewEngine(gw *gateway.Gateway, upstream *url.URL, logger *slog.Logger) *gin.Engine {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	direct := proxy.Director
	proxy.Director = func(r *http.Request) {
		direct(r)
		if r.Header.Get("User-Agent") == "" {
			r.Header.Set("User-Agent", oasgate.UserAgent())
		}
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("upstream request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusBadGateway)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(telemetry.ServiceName()), gateway.Gin(gw))
	engine.NoRoute(gin.WrapH(proxy))
	return engine
}

func runServe(cmd *cobra.Command, flags *ServeFlags) error {
	logger, err := logging.New(cmd.ErrOrStderr(), flags.LogFormat, flags.LogLevel)
	if err != nil {
		return err
	}
	upstream, err := ParseUpstream(flags.Upstream)
	if err != nil {
		return err
	}
	opts, err := GatewayOptions(cmd, flags, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, flags.OTel)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// Built after telemetry so the gateway picks up the global providers.
	gw, err := gateway.New(opts...)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              flags.Listen,
		Handler:           NewEngine(gw, upstream, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("listening", "addr", flags.Listen, "upstream", upstream.String(), "otel", flags.OTel)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
