package parser

// Schema represents an OpenAPI 3.0 Schema Object, the JSON Schema subset
// (plus nullable, readOnly and writeOnly) that OAS 3.0 defines.
type Schema struct {
	Ref string `yaml:"$ref,omitempty"`

	// Metadata
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Example     any    `yaml:"example,omitempty"`
	Deprecated  bool   `yaml:"deprecated,omitempty"`

	// Type validation
	Type     string `yaml:"type,omitempty"`
	Format   string `yaml:"format,omitempty"`
	Nullable bool   `yaml:"nullable,omitempty"`
	Enum     []any  `yaml:"enum,omitempty"`

	// Numeric validation
	MultipleOf       *float64 `yaml:"multipleOf,omitempty"`
	Maximum          *float64 `yaml:"maximum,omitempty"`
	ExclusiveMaximum bool     `yaml:"exclusiveMaximum,omitempty"`
	Minimum          *float64 `yaml:"minimum,omitempty"`
	ExclusiveMinimum bool     `yaml:"exclusiveMinimum,omitempty"`

	// String validation
	MaxLength *int   `yaml:"maxLength,omitempty"`
	MinLength *int   `yaml:"minLength,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`

	// Array validation
	Items       *Schema `yaml:"items,omitempty"`
	MaxItems    *int    `yaml:"maxItems,omitempty"`
	MinItems    *int    `yaml:"minItems,omitempty"`
	UniqueItems bool    `yaml:"uniqueItems,omitempty"`

	// Object validation
	Properties           map[string]*Schema    `yaml:"properties,omitempty"`
	AdditionalProperties *AdditionalProperties `yaml:"additionalProperties,omitempty"`
	Required             []string              `yaml:"required,omitempty"`
	MaxProperties        *int                  `yaml:"maxProperties,omitempty"`
	MinProperties        *int                  `yaml:"minProperties,omitempty"`

	// Composition
	AllOf []*Schema `yaml:"allOf,omitempty"`
	AnyOf []*Schema `yaml:"anyOf,omitempty"`
	OneOf []*Schema `yaml:"oneOf,omitempty"`
	Not   *Schema   `yaml:"not,omitempty"`

	// Access modifiers
	ReadOnly  bool `yaml:"readOnly,omitempty"`
	WriteOnly bool `yaml:"writeOnly,omitempty"`

	// Extra captures discriminator, xml, externalDocs and extensions
	Extra map[string]any `yaml:",inline"`
}

// AdditionalProperties is either a boolean or a schema.
// A nil *AdditionalProperties means additional properties are allowed.
type AdditionalProperties struct {
	Allowed bool
	Schema  *Schema
}

// UnmarshalYAML accepts both the boolean and the schema form.
func (a *AdditionalProperties) UnmarshalYAML(unmarshal func(any) error) error {
	var allowed bool
	if err := unmarshal(&allowed); err == nil {
		a.Allowed = allowed
		a.Schema = nil
		return nil
	}
	var s Schema
	if err := unmarshal(&s); err != nil {
		return err
	}
	a.Allowed = true
	a.Schema = &s
	return nil
}
