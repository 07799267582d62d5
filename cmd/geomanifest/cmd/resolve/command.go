// Package resolve implements the resolve command.
package resolve

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/geomanifest/internal/cmd/application"
	"github.com/agentstation/geomanifest/pkg/errors"
)

// NewCommand creates the resolve command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "resolve PROJECT QUERY",
		GroupID: "core",
		Short:   "Resolve a free-form layer reference to a layer id",
		Args:    cobra.ExactArgs(2),
		Long: `Resolve matches QUERY against the layer ids, display names and aliases of
a stored project, falling back to token overlap, and prints the layer id.

The command fails when nothing matches.`,
		Example: `  geomanifest resolve north gravity
  geomanifest resolve north "Поле дельта G"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Execute(app, args[0], args[1], cmd.OutOrStdout())
		},
	}
}

// Execute resolves query within project and prints the layer id.
func Execute(app application.Application, project, query string, w io.Writer) error {
	client, err := app.Client()
	if err != nil {
		return err
	}
	match, ok, err := client.Store().ResolveLayer(project, query)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("layer", query)
	}

	app.Logger().Debug().
		Str("project_id", project).
		Str("query", query).
		Str("rule", string(match.Rule)).
		Msg("Resolved layer")
	_, err = fmt.Fprintln(w, match.LayerID)
	return err
}
