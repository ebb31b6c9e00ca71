package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erraggy/oasgate/httpvalidator"
	"github.com/erraggy/oasgate/oaserrors"
	"github.com/erraggy/oasgate/parser"
)

// Phase is a step in the handling of one request.
type Phase int

const (
	// PhaseRouting serves the spec and UI endpoints, applies the whitelist
	// and matches the operation.
	PhaseRouting Phase = iota
	// PhaseNegotiating reads the body and runs the selected decoder.
	PhaseNegotiating
	// PhaseValidating validates parameters and body.
	PhaseValidating
	// PhaseDelegating runs the downstream handler.
	PhaseDelegating
	// PhaseResponseValidating validates the buffered downstream response.
	PhaseResponseValidating
	// PhaseDone is reached when the request left the gateway normally.
	PhaseDone
	// PhaseErrored is reached when the error handler took over.
	PhaseErrored
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseRouting:
		return "routing"
	case PhaseNegotiating:
		return "negotiating"
	case PhaseValidating:
		return "validating"
	case PhaseDelegating:
		return "delegating"
	case PhaseResponseValidating:
		return "response-validating"
	case PhaseDone:
		return "done"
	case PhaseErrored:
		return "errored"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Gateway validates requests against one compiled document. Everything it
// holds is built by New and only read afterwards, so a Gateway is safe for
// concurrent use.
type Gateway struct {
	parsed    *parser.ParseResult
	validator *httpvalidator.Validator
	decoders  *httpvalidator.MediaTypeTable[BodyDecoder]
	whitelist *pathWhitelist

	specEndpoint        string
	uiEndpoint          string
	enableUI            bool
	validateResponse    bool
	rejectUnknownRoutes bool
	maxBodySize         int64

	specJSON []byte
	uiPage   []byte

	errorHandler ErrorHandler
	logger       parser.Logger
	tel          *instruments
}

// New loads and compiles the configured document and prepares the served
// content. It fails with *oaserrors.ConfigError (ErrMissingDocument when no
// document is configured), *oaserrors.UnsupportedFormatError,
// *oaserrors.ParseError or *oaserrors.InvalidDocumentError.
func New(opts ...Option) (*Gateway, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	parsed, err := loadDocument(cfg)
	if err != nil {
		return nil, err
	}
	v, err := httpvalidator.New(parsed)
	if err != nil {
		return nil, err
	}
	v.StrictMode = cfg.strict
	v.FailFast = cfg.failFast
	v.Query = cfg.query
	v.MaxBodySize = cfg.maxBodySize

	decoders, err := httpvalidator.NewMediaTypeTable(cfg.decoders)
	if err != nil {
		return nil, &oaserrors.ConfigError{Option: "requestBodyHandlers", Cause: err}
	}
	wl, err := newPathWhitelist(cfg.prefixes)
	if err != nil {
		return nil, err
	}
	specJSON, err := parsed.JSON()
	if err != nil {
		return nil, err
	}
	var page []byte
	if cfg.enableUI {
		if page, err = renderUI(parsed.Title(), cfg.uiBundleBasePath, cfg.specEndpoint); err != nil {
			return nil, err
		}
	}

	g := &Gateway{
		parsed:              parsed,
		validator:           v,
		decoders:            decoders,
		whitelist:           wl,
		specEndpoint:        cfg.specEndpoint,
		uiEndpoint:          cfg.uiEndpoint,
		enableUI:            cfg.enableUI,
		validateResponse:    cfg.validateResponse,
		rejectUnknownRoutes: cfg.rejectUnknownRoutes,
		maxBodySize:         cfg.maxBodySize,
		specJSON:            specJSON,
		uiPage:              page,
		errorHandler:        cfg.errorHandler,
		logger:              cfg.logger,
		tel:                 newInstruments(cfg.meterProvider, cfg.tracerProvider),
	}
	g.logger.Info("gateway ready",
		"title", parsed.Title(),
		"operations", len(v.Spec().Operations()),
		"specEndpoint", g.specEndpoint,
		"validateResponse", g.validateResponse)
	return g, nil
}

func loadDocument(cfg *config) (*parser.ParseResult, error) {
	if cfg.parsed != nil {
		return cfg.parsed, nil
	}
	opts := []parser.Option{parser.WithLogger(cfg.logger)}
	if cfg.documentFile != "" {
		opts = append(opts, parser.WithFilePath(cfg.documentFile))
	} else {
		opts = append(opts, parser.WithObject(cfg.document))
	}
	return parser.ParseWithOptions(opts...)
}

// Spec returns the parsed document.
func (g *Gateway) Spec() *parser.ParseResult {
	return g.parsed
}

// Validator returns the underlying validator.
func (g *Gateway) Validator() *httpvalidator.Validator {
	return g.validator
}

// SpecJSON returns the document served at the spec endpoint.
func (g *Gateway) SpecJSON() []byte {
	return g.specJSON
}

// requestState tracks one request through its phases.
type requestState struct {
	ctx   context.Context
	log   parser.Logger
	tel   *instruments
	phase Phase
	op    *httpvalidator.Operation
}

func (g *Gateway) begin(r *http.Request) *requestState {
	return &requestState{
		ctx:   r.Context(),
		log:   g.logger.With("method", r.Method, "path", r.URL.Path),
		tel:   g.tel,
		phase: PhaseRouting,
	}
}

func (s *requestState) to(next Phase) {
	s.log.Debug("phase transition", "from", s.phase.String(), "to", next.String())
	s.phase = next
}

func (s *requestState) finish(final Phase, outcome string) {
	s.to(final)
	s.tel.recordRequest(s.ctx, outcome, s.op)
}

// Middleware wraps next. Errors re-raised by the error handler are written
// with DefaultErrorHandler.
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Handle(w, r, next); err != nil {
			if werr := DefaultErrorHandler(w, r, err); werr != nil {
				g.logger.Error("writing error response failed", "error", werr)
			}
		}
	})
}

// Handle runs one request through the gateway. next is called at most once.
// The returned error is one the error handler chose to re-raise; nothing has
// been written for it.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request, next http.Handler) error {
	st := g.begin(r)
	path := r.URL.Path

	switch {
	case path == g.specEndpoint:
		return g.serve(w, r, st, "application/json", g.specJSON)
	case g.enableUI && path == g.uiEndpoint:
		return g.serve(w, r, st, "text/html; charset=utf-8", g.uiPage)
	}

	if !g.whitelist.Allows(path) {
		st.to(PhaseDelegating)
		next.ServeHTTP(w, r)
		st.finish(PhaseDone, outcomeSkipped)
		return nil
	}

	ctx, span := g.tel.tracer.Start(r.Context(), "oasgate.validate",
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", path),
		))
	res, cleanup, err := g.validateRequest(ctx, r, st)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		if errors.Is(err, oaserrors.ErrRouteNotFound) && !g.rejectUnknownRoutes {
			span.End()
			st.log.Debug("no matching operation, delegating")
			st.to(PhaseDelegating)
			next.ServeHTTP(w, r)
			st.finish(PhaseDone, outcomeUnrouted)
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return g.fail(w, r, st, err, outcomeRejected)
	}
	span.SetAttributes(attribute.String("oasgate.operation", st.op.String()))
	span.End()

	r = r.WithContext(NewContext(r.Context(), newValidationContext(res)))
	st.to(PhaseDelegating)
	if !g.validateResponse {
		next.ServeHTTP(w, r)
		st.finish(PhaseDone, outcomePassed)
		return nil
	}

	buf := newResponseBuffer()
	next.ServeHTTP(buf, r)
	st.to(PhaseResponseValidating)
	if err := g.validateResponseBuffer(r, st, buf); err != nil {
		return g.fail(w, r, st, err, outcomeResponseRejected)
	}
	if err := buf.flushTo(w); err != nil {
		st.log.Warn("flushing response failed", "error", err)
	}
	st.finish(PhaseDone, outcomePassed)
	return nil
}

// serve answers the spec and UI endpoints.
func (g *Gateway) serve(w http.ResponseWriter, r *http.Request, st *requestState, contentType string, content []byte) error {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return g.fail(w, r, st, &oaserrors.RouteNotFoundError{
			Method:           r.Method,
			Path:             r.URL.Path,
			MethodNotAllowed: true,
			Allowed:          []string{http.MethodGet, http.MethodHead},
		}, outcomeRejected)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		if _, err := w.Write(content); err != nil {
			st.log.Warn("writing served content failed", "error", err)
		}
	}
	st.finish(PhaseDone, outcomeServed)
	return nil
}

// validateRequest routes, negotiates and validates. The returned cleanup
// releases decoder resources once the request is done.
func (g *Gateway) validateRequest(ctx context.Context, r *http.Request, st *requestState) (*httpvalidator.RequestValidationResult, func(), error) {
	op, rawParams, err := g.validator.Match(r)
	if err != nil {
		return nil, nil, err
	}
	st.op = op
	st.log = st.log.With("operation", op.String())

	st.to(PhaseNegotiating)
	in := &httpvalidator.RequestInput{
		PathParams: rawParams,
		Query:      r.URL.Query(),
		Header:     r.Header,
		Cookies:    r.Cookies(),
	}
	cleanup, err := g.negotiate(r, op, in)
	if err != nil {
		return nil, cleanup, err
	}

	st.to(PhaseValidating)
	start := time.Now()
	res := g.validator.ValidateRequestFor(op, in)
	g.tel.recordValidation(ctx, op, res.Errors, time.Since(start))
	if !res.Valid {
		st.log.Info("request validation failed", "violations", len(res.Errors))
		return nil, cleanup, res.Err()
	}
	return res, cleanup, nil
}

// negotiate reads the body once, restores it for downstream and decodes it
// with the most specific registered decoder.
func (g *Gateway) negotiate(r *http.Request, op *httpvalidator.Operation, in *httpvalidator.RequestInput) (func(), error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := httpvalidator.ReadBody(r.Body, g.maxBodySize)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := r.Header.Get("Content-Type")
	in.HasBody = true
	in.MediaType, _ = httpvalidator.ParseMediaType(contentType)
	in.Undecoded = true
	if op.RequestBody == nil {
		return nil, nil
	}
	n, ok := httpvalidator.Negotiate(op.RequestBody.Content, g.decoders, contentType)
	if !ok {
		return nil, nil
	}
	body, err := n.Decoder(contentType, data)
	if err != nil {
		return nil, &oaserrors.DecodingError{ContentType: n.MediaType, Cause: err}
	}
	in.Body, in.Undecoded = body, false
	if form, ok := body.(*multipart.Form); ok {
		return func() { _ = form.RemoveAll() }, nil
	}
	return nil, nil
}

func (g *Gateway) validateResponseBuffer(r *http.Request, st *requestState, buf *responseBuffer) error {
	_, span := g.tel.tracer.Start(r.Context(), "oasgate.validate_response",
		trace.WithAttributes(attribute.Int("http.response.status_code", buf.StatusCode())))
	defer span.End()

	buf.sniffContentType()
	start := time.Now()
	res := g.validator.ValidateResponseBytes(st.op, r.Method, buf.StatusCode(), buf.Header(), buf.Bytes())
	g.tel.recordValidation(st.ctx, st.op, res.Errors, time.Since(start))
	for _, warn := range res.Warnings {
		st.log.Debug("response warning", "violation", warn.String())
	}
	if err := res.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		st.log.Info("response validation failed", "status", res.StatusCode, "violations", len(res.Errors))
		return err
	}
	return nil
}

// fail hands err to the error handler.
func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, st *requestState, err error, outcome string) error {
	st.log.Debug("request failed", "phase", st.phase.String(), "error", err)
	st.finish(PhaseErrored, outcome)
	if herr := g.errorHandler(w, r, err); herr != nil {
		st.log.Warn("error handler re-raised", "error", herr)
		return herr
	}
	return nil
}
