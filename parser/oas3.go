package parser

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v4"
)

// Document represents an OpenAPI Specification 3.0.x document.
// Swagger 2.0 input is converted before it is decoded into a Document.
//
// Reference: https://spec.openapis.org/oas/v3.0.3.html
type Document struct {
	OpenAPI    string      `yaml:"openapi"` // Required: "3.0.x"
	Info       *Info       `yaml:"info"`    // Required
	Servers    []*Server   `yaml:"servers,omitempty"`
	Paths      Paths       `yaml:"paths"` // Required
	Components *Components `yaml:"components,omitempty"`

	// Extra captures security, tags, externalDocs and specification extensions
	Extra map[string]any `yaml:",inline"`
}

// Info provides metadata about the API.
type Info struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version"`

	Extra map[string]any `yaml:",inline"`
}

// Server represents a server.
type Server struct {
	URL         string `yaml:"url"`
	Description string `yaml:"description,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// Components holds reusable objects that may be referenced with a local $ref.
type Components struct {
	Schemas       map[string]*Schema      `yaml:"schemas,omitempty"`
	Responses     map[string]*Response    `yaml:"responses,omitempty"`
	Parameters    map[string]*Parameter   `yaml:"parameters,omitempty"`
	RequestBodies map[string]*RequestBody `yaml:"requestBodies,omitempty"`
	Headers       map[string]*Header      `yaml:"headers,omitempty"`

	// Extra captures examples, securitySchemes, links, callbacks and extensions
	Extra map[string]any `yaml:",inline"`
}

// Paths maps path templates to path items.
// Specification extensions ("x-" keys) are dropped while decoding.
type Paths map[string]*PathItem

// UnmarshalYAML skips specification extensions so that every entry is a PathItem.
func (p *Paths) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	out := make(Paths, len(raw))
	for key, value := range raw {
		if strings.HasPrefix(key, "x-") {
			continue
		}
		var item PathItem
		if err := remarshal(value, &item); err != nil {
			return fmt.Errorf("path %s: %w", key, err)
		}
		out[key] = &item
	}
	*p = out
	return nil
}

// remarshal decodes a generic YAML value into a typed target.
func remarshal(value any, target any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, target)
}
