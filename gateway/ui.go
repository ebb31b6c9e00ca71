package gateway

import (
	"bytes"
	"fmt"
	"html/template"
)

const defaultUITitle = "Swagger UI"

var uiTemplate = template.Must(template.New("ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="{{.BundleBase}}/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="{{.BundleBase}}/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function () {
      window.ui = SwaggerUIBundle({ url: {{.SpecURL}}, dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`))

type uiPage struct {
	Title      string
	BundleBase string
	SpecURL    string
}

// renderUI renders the Swagger UI page for the spec endpoint.
func renderUI(title, bundleBase, specURL string) ([]byte, error) {
	if title == "" {
		title = defaultUITitle
	}
	var buf bytes.Buffer
	if err := uiTemplate.Execute(&buf, uiPage{Title: title, BundleBase: bundleBase, SpecURL: specURL}); err != nil {
		return nil, fmt.Errorf("gateway: render ui: %w", err)
	}
	return buf.Bytes(), nil
}
