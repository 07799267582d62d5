// Package version implements the version command.
package version

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/geomanifest/internal/cmd/application"
	"github.com/agentstation/geomanifest/pkg/constants"
)

// NewCommand creates the version command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			Print(app, cmd.OutOrStdout())
		},
	}
}

// Print writes the build information.
func Print(app application.Application, w io.Writer) {
	fmt.Fprintf(w, "geomanifest version %s\n", app.Version())
	fmt.Fprintf(w, "commit: %s\n", app.Commit())
	fmt.Fprintf(w, "built: %s\n", app.Date())
	fmt.Fprintf(w, "built by: %s\n", app.BuiltBy())
	fmt.Fprintf(w, "manifest version: %s\n", constants.ManifestVersion)
	fmt.Fprintf(w, "pipeline version: %s\n", constants.PipelineVersion)
	fmt.Fprintf(w, "go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
