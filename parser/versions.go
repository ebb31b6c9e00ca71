package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/erraggy/oasgate/oaserrors"
)

// Version strings that parsing recognizes.
const (
	// VersionSwagger2 is the only accepted "swagger" field value.
	VersionSwagger2 = "2.0"
	// versionPrefix30 prefixes every accepted "openapi" field value.
	versionPrefix30 = "3.0."
)

// detectVersion reads the "openapi" or "swagger" field of a decoded document.
// Only Swagger 2.0 and OpenAPI 3.0.x are accepted.
func detectVersion(source string, data map[string]any) (string, error) {
	if v, ok := data["openapi"]; ok {
		s, isString := v.(string)
		if !isString {
			return "", &oaserrors.ParseError{Path: source, Message: fmt.Sprintf("openapi field must be a string, got %T", v)}
		}
		if !strings.HasPrefix(s, versionPrefix30) {
			return "", &oaserrors.ParseError{Path: source, Message: fmt.Sprintf("unsupported OpenAPI version %q: only 2.0 and 3.0.x are supported", s)}
		}
		return s, nil
	}
	if v, ok := data["swagger"]; ok {
		s := fmt.Sprint(v)
		if f, isFloat := v.(float64); isFloat {
			// unquoted YAML 2.0
			s = strconv.FormatFloat(f, 'f', 1, 64)
		}
		if s == VersionSwagger2 {
			return VersionSwagger2, nil
		}
		return "", &oaserrors.ParseError{Path: source, Message: fmt.Sprintf("unsupported Swagger version %v", v)}
	}
	return "", &oaserrors.ParseError{Path: source, Message: "missing openapi or swagger version field"}
}
