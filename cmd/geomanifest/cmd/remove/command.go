// Package remove implements the delete command.
package remove

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/geomanifest/internal/cmd/application"
)

// NewCommand creates the delete command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "delete PROJECT",
		GroupID: "management",
		Short:   "Delete a stored project",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(cmd.Context(), app, args[0], cmd.OutOrStdout())
		},
	}
}

// Execute removes a project directory and its registry entry.
func Execute(ctx context.Context, app application.Application, project string, w io.Writer) error {
	client, err := app.Client()
	if err != nil {
		return err
	}
	if err := client.Store().Delete(ctx, project); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "deleted %s\n", project)
	return err
}
