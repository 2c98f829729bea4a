package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata. Release builds inject these via -ldflags; development
// builds fall back to whatever debug.ReadBuildInfo carries.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo resolves one field of the build metadata: the ldflags value
// when set, otherwise the named VCS setting from the embedded build
// info, otherwise the fallback.
func buildInfo(ldflag, vcsKey, fallback string) string {
	if ldflag != "" {
		return ldflag
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == vcsKey {
				return s.Value
			}
		}
	}
	return fallback
}

// getVersion returns the version string shown by --version and the
// version subcommand.
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// getCommit returns the VCS revision, abbreviated to 7 characters the
// way git log does.
func getCommit() string {
	rev := buildInfo(commit, "vcs.revision", "unknown")
	if len(rev) > 7 {
		rev = rev[:7]
	}
	return rev
}

// getDate returns the commit timestamp of the build.
func getDate() string {
	return buildInfo(date, "vcs.time", "unknown")
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of ravenx.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ravenx version %s\n", getVersion())
			fmt.Fprintf(out, "  commit: %s\n", getCommit())
			fmt.Fprintf(out, "  built:  %s\n", getDate())
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
		},
	}
}
