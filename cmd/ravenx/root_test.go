package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	if cmd.Use != "ravenx" {
		t.Errorf("expected use 'ravenx', got %q", cmd.Use)
	}
	if cmd.Version == "" {
		t.Error("expected a version string")
	}
	if !cmd.SilenceUsage || !cmd.SilenceErrors {
		t.Error("root command must silence cobra's own usage and error output")
	}

	if flag := cmd.PersistentFlags().Lookup("verbose"); flag == nil {
		t.Error("expected persistent verbose flag")
	} else if flag.Shorthand != "v" {
		t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
	}

	// Every user-facing surface hangs off a subcommand.
	want := map[string]bool{"scan": false, "review": false, "init": false, "version": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing %s subcommand", name)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	help := buf.String()
	for _, want := range []string{"scan", "review", "authorized"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}
