package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use == "" || rootCmd.Short == "" || rootCmd.Long == "" {
		t.Error("rootCmd should have a name and descriptions")
	}

	expected := []string{"parse", "markers", "show", "lenses", "goto", "check", "watch", "mcp", "version"}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
		if cmd.Short == "" {
			t.Errorf("Command %s should have a short description", cmd.Name())
		}
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("Expected command %s to be registered", name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	for _, name := range []string{"verbose", "config"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag --%s", name)
		}
	}
	if flag := rootCmd.PersistentFlags().Lookup("verbose"); flag != nil && flag.Shorthand != "v" {
		t.Errorf("Expected -v shorthand, got %q", flag.Shorthand)
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command  string
		flag     string
		defValue string
	}{
		{command: "parse", flag: "format", defValue: "table"},
		{command: "show", flag: "format", defValue: "terminal"},
		{command: "check", flag: "strict", defValue: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.command})
			if err != nil {
				t.Fatalf("Failed to find command: %v", err)
			}
			flag := cmd.Flags().Lookup(tt.flag)
			if flag == nil {
				t.Fatalf("Expected flag --%s on %s", tt.flag, tt.command)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("Expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestHelpOutput(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--help"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "goto") {
		t.Errorf("Expected help to list commands, got:\n%s", buf.String())
	}
}

func TestInvalidCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"invalid-command"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected an error for an unknown command")
	}
}
