package commands

import (
	"github.com/spf13/cobra"

	"github.com/erraggy/oasgate"
)

// VersionInfo is the structured output of the version command.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"buildTime" yaml:"buildTime"`
	Go        string `json:"go" yaml:"go"`
}

// NewVersionCommand returns the version command.
func NewVersionCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ValidateOutputFormat(format); err != nil {
				return err
			}
			if format != FormatText {
				return OutputStructured(cmd.OutOrStdout(), VersionInfo{
					Version:   oasgate.Version(),
					Commit:    oasgate.Commit(),
					BuildTime: oasgate.BuildTime(),
					Go:        oasgate.GoVersion(),
				}, format)
			}
			Writef(cmd.OutOrStdout(), "oasgate %s\n%s\n", oasgate.Version(), oasgate.BuildInfo())
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "output format: text, json, or yaml")
	return cmd
}
