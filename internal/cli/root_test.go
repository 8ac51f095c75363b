package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()

	if cmd == nil {
		t.Fatal("expected root command, got nil")
	}

	if cmd.Use != "stealbench" {
		t.Errorf("expected use 'stealbench', got %q", cmd.Use)
	}

	// Verify subcommands are registered
	expectedCommands := []string{
		"run",
		"info",
		"version",
	}

	for _, cmdName := range expectedCommands {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == cmdName {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", cmdName)
		}
	}
}

func TestInfoCommand(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"info"})

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := output.String()
	for _, want := range []string{"logical cores", "default workers", "steal batch"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"version"})

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(output.String(), "stealbench") {
		t.Errorf("version output missing binary name:\n%s", output.String())
	}
}

func TestRunCommand_SmallBenchmark(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--tasks", "200", "--no-color"})

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := output.String()
	for _, want := range []string{"LABEL", "steal-on", "200"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommand_RejectsUnknownSubmission(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--tasks", "10", "--submission", "sideways"})

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected error for unknown submission mode, got nil")
	}
}
