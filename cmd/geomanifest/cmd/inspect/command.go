// Package inspect implements the inspect command.
package inspect

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/geomanifest/internal/cmd/application"
	"github.com/agentstation/geomanifest/internal/cmd/output"
	"github.com/agentstation/geomanifest/internal/cmd/table"
	"github.com/agentstation/geomanifest/internal/store"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/manifest"
	"github.com/agentstation/geomanifest/pkg/provenance"
	"github.com/agentstation/geomanifest/pkg/save"
)

// Flags holds the inspect command flags.
type Flags struct {
	Provenance bool
}

// NewCommand creates the inspect command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "inspect PROJECT [LAYER]",
		GroupID: "core",
		Short:   "Print a stored manifest or layer profile",
		Args:    cobra.RangeArgs(1, 2),
		Long: `Inspect prints the stored manifest of PROJECT. With LAYER, which may be any
reference the resolve command accepts, it prints that layer's full profile.

JSON and YAML output print the stored documents; table output prints a
summary and the layer list. With --provenance, JSON and YAML output list the
tier that named each layer and the reason it gave.`,
		Example: `  geomanifest inspect north
  geomanifest inspect north -o yaml
  geomanifest inspect north gravity -o json
  geomanifest inspect north --provenance`,
		RunE: func(cmd *cobra.Command, args []string) error {
			layer := ""
			if len(args) == 2 {
				layer = args[1]
			}
			return Execute(app, args[0], layer, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&flags.Provenance, "provenance", false, "show the display-name candidates of every layer")
	return cmd
}

// Execute prints the requested document.
func Execute(app application.Application, project, layer string, flags *Flags, w io.Writer) error {
	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}
	client, err := app.Client()
	if err != nil {
		return err
	}
	s := client.Store()
	formatter := output.NewFormatter(format)

	switch {
	case flags.Provenance:
		prov, err := s.Provenance(project)
		if err != nil {
			return err
		}
		if format == output.FormatTable {
			return formatter.Format(w, table.ProvenanceToTableData(prov))
		}
		return formatter.Format(w, provenance.GenerateReport(prov))

	case layer != "":
		return printLayer(s, project, layer, formatter, w)
	}

	m, err := s.Manifest(project)
	if err != nil {
		return err
	}
	switch format {
	case output.FormatTable:
		if err := formatter.Format(w, table.SummaryToTableData(m)); err != nil {
			return err
		}
		return formatter.Format(w, table.LayersToTableData(m))
	case output.FormatYAML:
		return manifest.Encode(w, m, save.WithFormat(save.FormatYAML))
	default:
		return manifest.Encode(w, m)
	}
}

func printLayer(s *store.Store, project, query string, formatter output.Formatter, w io.Writer) error {
	match, ok, err := s.ResolveLayer(project, query)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("layer", query)
	}
	profile, err := s.LayerProfile(project, match.LayerID)
	if err != nil {
		return err
	}
	return formatter.Format(w, profile)
}
