package parser

import (
	"fmt"
	"net/http"
	"strings"
)

// PathItem describes the operations available on a single path.
type PathItem struct {
	Ref         string       `yaml:"$ref,omitempty"`
	Summary     string       `yaml:"summary,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Get         *Operation   `yaml:"get,omitempty"`
	Put         *Operation   `yaml:"put,omitempty"`
	Post        *Operation   `yaml:"post,omitempty"`
	Delete      *Operation   `yaml:"delete,omitempty"`
	Options     *Operation   `yaml:"options,omitempty"`
	Head        *Operation   `yaml:"head,omitempty"`
	Patch       *Operation   `yaml:"patch,omitempty"`
	Trace       *Operation   `yaml:"trace,omitempty"`
	Servers     []*Server    `yaml:"servers,omitempty"`
	Parameters  []*Parameter `yaml:"parameters,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// Methods lists HTTP methods in the order operations are reported.
var Methods = []string{
	http.MethodGet,
	http.MethodPut,
	http.MethodPost,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
	http.MethodPatch,
	http.MethodTrace,
}

// Operation returns the operation declared for method, or nil.
// method is matched case-insensitively.
func (p *PathItem) Operation(method string) *Operation {
	if p == nil {
		return nil
	}
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return p.Get
	case http.MethodPut:
		return p.Put
	case http.MethodPost:
		return p.Post
	case http.MethodDelete:
		return p.Delete
	case http.MethodOptions:
		return p.Options
	case http.MethodHead:
		return p.Head
	case http.MethodPatch:
		return p.Patch
	case http.MethodTrace:
		return p.Trace
	default:
		return nil
	}
}

// Operation describes a single API operation on a path.
type Operation struct {
	Tags        []string     `yaml:"tags,omitempty"`
	Summary     string       `yaml:"summary,omitempty"`
	Description string       `yaml:"description,omitempty"`
	OperationID string       `yaml:"operationId,omitempty"`
	Parameters  []*Parameter `yaml:"parameters,omitempty"`
	RequestBody *RequestBody `yaml:"requestBody,omitempty"`
	Responses   *Responses   `yaml:"responses,omitempty"`
	Deprecated  bool         `yaml:"deprecated,omitempty"`

	// Extra captures callbacks, security, servers and specification
	// extensions such as x-additionalProperties.
	Extra map[string]any `yaml:",inline"`
}

// Extension returns the value of the x- extension named name, if present.
func (o *Operation) Extension(name string) (any, bool) {
	if o == nil || o.Extra == nil {
		return nil, false
	}
	v, ok := o.Extra[name]
	return v, ok
}

// Responses maps status codes (or "1XX".."5XX" ranges) to responses.
type Responses struct {
	Default *Response
	Codes   map[string]*Response
}

// UnmarshalYAML separates the default response from status codes and skips
// specification extensions.
func (r *Responses) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	r.Codes = make(map[string]*Response, len(raw))
	for key, value := range raw {
		if strings.HasPrefix(key, "x-") {
			continue
		}
		var resp Response
		if err := remarshal(value, &resp); err != nil {
			return fmt.Errorf("response %s: %w", key, err)
		}
		if key == "default" {
			r.Default = &resp
			continue
		}
		r.Codes[strings.ToUpper(key)] = &resp
	}
	return nil
}

// Response describes a single response from an API operation.
type Response struct {
	Ref         string                `yaml:"$ref,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Headers     map[string]*Header    `yaml:"headers,omitempty"`
	Content     map[string]*MediaType `yaml:"content,omitempty"`

	Extra map[string]any `yaml:",inline"`
}
