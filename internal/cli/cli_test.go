package cli

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	want := map[string]bool{
		"serve":      false,
		"view":       false,
		"export":     false,
		"seed":       false,
		"node":       false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestExportSnapshotLocal(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	ctx := context.Background()

	snap, err := c.exportSnapshot(ctx, "", false)
	if err != nil {
		t.Fatalf("baseline export: %v", err)
	}
	if len(snap.AbstractNodes) == 0 {
		t.Error("baseline snapshot is empty")
	}

	focused, err := c.exportSnapshot(ctx, "transforms", false)
	if err != nil {
		t.Fatalf("focus export: %v", err)
	}
	if len(focused.AbstractNodes) == 0 {
		t.Error("focus snapshot is empty")
	}

	if _, err := c.exportSnapshot(ctx, "no-such-slug", false); err == nil {
		t.Error("unknown slug should fail")
	}
}
