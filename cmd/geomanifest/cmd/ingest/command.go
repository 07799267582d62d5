// Package ingest implements the ingest command.
package ingest

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/geomanifest"
	"github.com/agentstation/geomanifest/internal/cmd/application"
	"github.com/agentstation/geomanifest/internal/cmd/output"
	"github.com/agentstation/geomanifest/internal/cmd/table"
	"github.com/agentstation/geomanifest/pkg/manifest"
)

// Flags holds the ingest command flags.
type Flags struct {
	Database  string
	Archive   string
	Toolbox   string
	ProjectID string
	Output    string
	Replace   bool
}

// Result is the summary printed after a successful ingestion.
type Result struct {
	Project         string  `json:"project"`
	Name            string  `json:"name"`
	Map             *string `json:"map"`
	Layers          int     `json:"layers"`
	CoveragePercent float64 `json:"coverage_percent"`
	NeedsReview     int     `json:"needs_review"`
	Completeness    string  `json:"metadata_completeness"`
	Warnings        int     `json:"warnings"`
}

// NewCommand creates the ingest command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "ingest",
		GroupID: "core",
		Short:   "Build and store a project manifest",
		Args:    cobra.NoArgs,
		Long: `Ingest profiles a feature database, resolves layer names from an optional
project archive, scores the result and stores the manifest together with the
per-layer profiles and the unpacked archive documents.

Without --aprx layer names come from the domain vocabulary and inference,
and the manifest carries a warning recommending an archive upload.`,
		Example: `  geomanifest ingest --gdb North.gpkg --aprx North.aprx --project-id north
  geomanifest ingest --gdb North.gpkg --project-id north --replace
  geomanifest ingest --gdb North.gpkg --project-id north -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.Database, "gdb", "", "feature database (GeoPackage file or directory)")
	cmd.Flags().StringVar(&flags.Archive, "aprx", "", "ArcGIS Pro project archive")
	cmd.Flags().StringVar(&flags.Toolbox, "atbx", "", "toolbox archive")
	cmd.Flags().StringVar(&flags.ProjectID, "project-id", "", "project identifier (lowercase slug)")
	cmd.Flags().StringVar(&flags.Output, "output", "", "projects directory (overrides --projects-dir)")
	cmd.Flags().BoolVar(&flags.Replace, "replace", false, "replace an existing project")
	_ = cmd.MarkFlagRequired("gdb")
	_ = cmd.MarkFlagRequired("project-id")

	return cmd
}

// Execute runs one ingestion and prints its summary.
func Execute(ctx context.Context, app application.Application, flags *Flags, w io.Writer) error {
	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}

	var opts []geomanifest.Option
	if flags.Output != "" {
		opts = append(opts, geomanifest.WithProjectsDir(flags.Output))
	}
	client, err := app.Client(opts...)
	if err != nil {
		return err
	}

	m, err := client.Ingest(ctx, geomanifest.Request{
		ProjectID:    flags.ProjectID,
		DatabasePath: flags.Database,
		ArchivePath:  flags.Archive,
		ToolboxPath:  flags.Toolbox,
		Replace:      flags.Replace,
	})
	if err != nil {
		return err
	}

	if format == output.FormatTable {
		return output.NewFormatter(format).Format(w, table.SummaryToTableData(m))
	}
	return output.NewFormatter(format).Format(w, Summarize(m))
}

// Summarize extracts the headline figures of a manifest.
func Summarize(m *manifest.Manifest) Result {
	return Result{
		Project:         m.Project.ID,
		Name:            m.Project.Name,
		Map:             m.Project.Map.Name,
		Layers:          len(m.Layers),
		CoveragePercent: m.MappingQuality.CoveragePercent,
		NeedsReview:     m.MappingQuality.NeedsReview,
		Completeness:    m.Quality.MetadataCompleteness,
		Warnings:        len(m.Quality.Warnings),
	}
}
