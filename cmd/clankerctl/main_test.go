package main

import "testing"

func TestRootCmdIncludesSubcommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"list", "status", "send"} {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}

	if root.PersistentFlags().Lookup("endpoint") == nil {
		t.Fatal("missing persistent --endpoint flag")
	}
	if root.PersistentFlags().Lookup("debug") == nil {
		t.Fatal("missing persistent --debug flag")
	}
}

func TestListCmdShape(t *testing.T) {
	cmd := listCmd()
	if cmd.Use != "list" {
		t.Fatalf("unexpected use: %q", cmd.Use)
	}
	if err := cmd.Args(cmd, []string{"unexpected"}); err == nil {
		t.Fatal("expected args validation error for unexpected positional arg")
	}
}

func TestStatusCmdShape(t *testing.T) {
	cmd := statusCmd()
	if cmd.Flags().Lookup("id") == nil {
		t.Fatal("missing --id flag")
	}
}

func TestSendCmdRequiresIDAndContentOrFile(t *testing.T) {
	cmd := sendCmd()
	for _, name := range []string{"id", "content", "file"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing --%s flag", name)
		}
	}
}
