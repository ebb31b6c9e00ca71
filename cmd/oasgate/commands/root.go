package commands

import "github.com/spf13/cobra"

// NewRootCommand returns the oasgate command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "oasgate",
		Short: "Validate HTTP traffic against an OpenAPI document",
		Long: `oasgate loads an OpenAPI 3.0 or Swagger 2.0 document and validates
requests, and optionally responses, before they reach your service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		NewServeCommand(),
		NewCheckCommand(),
		NewRoutesCommand(),
		NewVersionCommand(),
	)
	return root
}
