// Package main provides the entry point for the RavenX CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for RavenX.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ravenx",
		Short: "Scope-bounded security crawler for authorized targets",
		Long: `RavenX crawls a bounded set of target hosts and runs every fetched page
through a pipeline of vulnerability checks: CSRF, CORS, security headers,
open redirects, reflected parameters, OAuth/OIDC/SAML flows, subdomain
takeover candidates, and more.

Findings are content-addressed: each one carries a deterministic
fingerprint, so repeated scans converge on the same records and the
review queue deduplicates across sessions.

Only scan assets you are authorized to test. Every scan requires the
--attest-authorized flag as confirmation.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewReviewCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
