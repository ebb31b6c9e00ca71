package parser

// Parameter locations
const (
	// ParamInQuery indicates the parameter is passed in the query string
	ParamInQuery = "query"
	// ParamInHeader indicates the parameter is passed in a request header
	ParamInHeader = "header"
	// ParamInPath indicates the parameter is part of the URL path
	ParamInPath = "path"
	// ParamInCookie indicates the parameter is passed as a cookie
	ParamInCookie = "cookie"
)

// Parameter serialization styles
const (
	StyleForm           = "form"
	StyleSimple         = "simple"
	StyleLabel          = "label"
	StyleMatrix         = "matrix"
	StyleSpaceDelimited = "spaceDelimited"
	StylePipeDelimited  = "pipeDelimited"
	StyleDeepObject     = "deepObject"
)

// Parameter describes a single operation parameter.
type Parameter struct {
	Ref             string                `yaml:"$ref,omitempty"`
	Name            string                `yaml:"name,omitempty"`
	In              string                `yaml:"in,omitempty"`
	Description     string                `yaml:"description,omitempty"`
	Required        bool                  `yaml:"required,omitempty"`
	Deprecated      bool                  `yaml:"deprecated,omitempty"`
	AllowEmptyValue bool                  `yaml:"allowEmptyValue,omitempty"`
	Style           string                `yaml:"style,omitempty"`
	Explode         *bool                 `yaml:"explode,omitempty"`
	AllowReserved   bool                  `yaml:"allowReserved,omitempty"`
	Schema          *Schema               `yaml:"schema,omitempty"`
	Content         map[string]*MediaType `yaml:"content,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// EffectiveStyle returns the declared style or the default for the parameter location.
func (p *Parameter) EffectiveStyle() string {
	if p.Style != "" {
		return p.Style
	}
	switch p.In {
	case ParamInQuery, ParamInCookie:
		return StyleForm
	default:
		return StyleSimple
	}
}

// EffectiveExplode returns the declared explode flag, defaulting to true only
// for form style.
func (p *Parameter) EffectiveExplode() bool {
	if p.Explode != nil {
		return *p.Explode
	}
	return p.EffectiveStyle() == StyleForm
}

// RequestBody describes a single request body.
type RequestBody struct {
	Ref         string                `yaml:"$ref,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Content     map[string]*MediaType `yaml:"content,omitempty"`
	Required    bool                  `yaml:"required,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// MediaType provides the schema for one content type.
type MediaType struct {
	Schema   *Schema        `yaml:"schema,omitempty"`
	Example  any            `yaml:"example,omitempty"`
	Encoding map[string]any `yaml:"encoding,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// Header describes a response header.
type Header struct {
	Ref         string                `yaml:"$ref,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Required    bool                  `yaml:"required,omitempty"`
	Deprecated  bool                  `yaml:"deprecated,omitempty"`
	Style       string                `yaml:"style,omitempty"`
	Explode     *bool                 `yaml:"explode,omitempty"`
	Schema      *Schema               `yaml:"schema,omitempty"`
	Content     map[string]*MediaType `yaml:"content,omitempty"`

	Extra map[string]any `yaml:",inline"`
}
