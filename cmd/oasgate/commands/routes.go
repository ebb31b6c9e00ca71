package commands

import (
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/erraggy/oasgate/httpvalidator"
)

// RoutesFlags contains flags for the routes command
type RoutesFlags struct {
	Format string
}

// Route is one compiled operation as listed by the routes command.
type Route struct {
	Method      string   `json:"method" yaml:"method"`
	Path        string   `json:"path" yaml:"path"`
	OperationID string   `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Parameters  []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	BodyTypes   []string `json:"bodyTypes,omitempty" yaml:"bodyTypes,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// NewRoutesCommand returns the routes command.
func NewRoutesCommand() *cobra.Command {
	flags := &RoutesFlags{}
	cmd := &cobra.Command{
		Use:   "routes [flags] <file>",
		Short: "List operations in matching order",
		Long: `Compile an OpenAPI document and list its operations in the order the
gateway tries them: literal segments before variables, then by method.`,
		Example: `  oasgate routes openapi.yaml
  oasgate routes --format yaml openapi.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateOutputFormat(flags.Format); err != nil {
				return err
			}
			routes, err := ListRoutes(args[0])
			if err != nil {
				return err
			}
			if flags.Format != FormatText {
				return OutputStructured(cmd.OutOrStdout(), routes, flags.Format)
			}
			outputRoutesText(cmd, routes)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.Format, "format", "f", FormatText, "output format: text, json, or yaml")
	return cmd
}

// ListRoutes compiles the document at path and returns its operations in
// precedence order.
func ListRoutes(path string) ([]Route, error) {
	parsed, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	spec, err := httpvalidator.Compile(parsed)
	if err != nil {
		return nil, err
	}

	ops := spec.Operations()
	routes := make([]Route, 0, len(ops))
	for _, op := range ops {
		r := Route{
			Method:      op.Method,
			Path:        op.PathTemplate,
			OperationID: op.ID,
			Deprecated:  op.Deprecated,
		}
		for _, p := range op.Parameters {
			r.Parameters = append(r.Parameters, p.In+"."+p.Name)
		}
		if op.RequestBody != nil {
			r.BodyTypes = op.RequestBody.Content.Keys()
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func outputRoutesText(cmd *cobra.Command, routes []Route) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	Writef(tw, "METHOD\tPATH\tOPERATION\tBODY\n")
	for _, r := range routes {
		id := r.OperationID
		if id == "" {
			id = "-"
		}
		if r.Deprecated {
			id += " (deprecated)"
		}
		body := strings.Join(r.BodyTypes, ",")
		if body == "" {
			body = "-"
		}
		Writef(tw, "%s\t%s\t%s\t%s\n", r.Method, r.Path, id, body)
	}
	_ = tw.Flush()
}
