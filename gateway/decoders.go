package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/url"
)

// BodyDecoder decodes a request body. contentType is the raw Content-Type
// header, parameters included. The returned error reaches the error handler
// wrapped in an *oaserrors.DecodingError.
type BodyDecoder func(contentType string, body []byte) (any, error)

// multipartMemory is the in-memory budget for multipart forms; larger file
// parts spill to temporary files that are removed after the request.
const multipartMemory = 32 << 20

// DefaultBodyDecoders returns the decoders registered by default.
func DefaultBodyDecoders() map[string]BodyDecoder {
	return map[string]BodyDecoder{
		"application/json":                  JSONDecoder,
		"application/x-www-form-urlencoded": FormDecoder,
		"multipart/form-data":               MultipartDecoder,
		"text/*":                            TextDecoder,
	}
}

// JSONDecoder decodes JSON into generic values.
func JSONDecoder(_ string, body []byte) (any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// FormDecoder decodes a urlencoded form into url.Values.
func FormDecoder(_ string, body []byte) (any, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	return values, nil
}

// MultipartDecoder decodes a multipart form into a *multipart.Form.
func MultipartDecoder(contentType string, body []byte) (any, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, errors.New("multipart body has no boundary")
	}
	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(multipartMemory)
	if err != nil {
		return nil, err
	}
	return form, nil
}

// TextDecoder returns the body as a string.
func TextDecoder(_ string, body []byte) (any, error) {
	return string(body), nil
}
