// Package projects implements the projects command.
package projects

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/geomanifest/internal/cmd/application"
	"github.com/agentstation/geomanifest/internal/cmd/output"
	"github.com/agentstation/geomanifest/internal/cmd/table"
)

// NewCommand creates the projects command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "projects",
		GroupID: "management",
		Short:   "List stored projects",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(app, cmd.OutOrStdout())
		},
	}
}

// Execute prints the registry entries.
func Execute(app application.Application, w io.Writer) error {
	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}
	client, err := app.Client()
	if err != nil {
		return err
	}
	entries, err := client.Store().Projects()
	if err != nil {
		return err
	}

	if format == output.FormatTable {
		return output.NewFormatter(format).Format(w, table.ProjectsToTableData(entries))
	}
	return output.NewFormatter(format).Format(w, entries)
}
