package parser

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"

	"github.com/erraggy/oasgate/oaserrors"
)

// convertSwagger2 converts a decoded Swagger 2.0 document into OpenAPI 3.0
// generic data. Body and formData parameters become request bodies, and
// definitions move under components/schemas with their $refs rewritten.
func convertSwagger2(raw map[string]any) (map[string]any, error) {
	convErr := func(err error) error {
		return &oaserrors.ConversionError{SourceVersion: VersionSwagger2, TargetVersion: "3.0", Cause: err}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, convErr(err)
	}
	var v2 openapi2.T
	if err := json.Unmarshal(data, &v2); err != nil {
		return nil, convErr(err)
	}
	v3, err := openapi2conv.ToV3(&v2)
	if err != nil {
		return nil, convErr(err)
	}
	out, err := json.Marshal(v3)
	if err != nil {
		return nil, convErr(err)
	}
	var converted map[string]any
	if err := json.Unmarshal(out, &converted); err != nil {
		return nil, convErr(err)
	}
	return converted, nil
}
