package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionInfo = VersionInfo{Version: "dev", Commit: "none"}

// VersionInfo contains build information
type VersionInfo struct {
	Version string
	Commit  string
}

// SetVersion sets the version information (called from main)
func SetVersion(version, commit string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mindease %s (%s)\n", versionInfo.Version, versionInfo.Commit)
		},
	}
}
