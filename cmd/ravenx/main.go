// Package main provides the entry point for the RavenX CLI.
//
// RavenX is a scope-bounded security crawler for authorized targets.
// It crawls the hosts you point it at, runs every fetched page through
// a pipeline of vulnerability checks, and produces deduplicated,
// content-addressed findings.
//
// Usage:
//
//	ravenx scan --attest-authorized https://target.example.com
//	ravenx review
//
// See --help for all available options.
package main

// main is the entry point for RavenX.
func main() {
	Execute()
}
