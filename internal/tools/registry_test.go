package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func noop(_ context.Context, _ map[string]any) (any, error) {
	return nil, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: "noop", Execute: noop}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, ok := r.Get("noop")
	if !ok {
		t.Fatal("expected to find registered tool")
	}
	if def.Name != "noop" {
		t.Errorf("expected name noop, got %s", def.Name)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing tool to not be found")
	}
}

func TestRegistryDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: "noop", Execute: noop}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(Definition{Name: "noop", Execute: noop}); err == nil {
		t.Fatal("expected error on duplicate registration")
	}
}

func TestRegistryRejectsInvalidDefinitions(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Definition{Name: "", Execute: noop}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := r.Register(Definition{Name: "broken"}); err == nil {
		t.Error("expected error for nil execute func")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(Definition{Name: name, Execute: noop}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	names := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestBuiltinsRegistered(t *testing.T) {
	r := NewRegistry()
	if err := RegisterBuiltins(r, t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"shell", "read_file", "write_file", "sleep"} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("expected builtin %s to be registered", name)
		}
	}
}

func TestFileToolsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()
	if err := RegisterBuiltins(r, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	write, _ := r.Get("write_file")
	if _, err := write.Execute(context.Background(), map[string]any{
		"path":    "out/note.txt",
		"content": "hello",
	}); err != nil {
		t.Fatalf("write_file: %v", err)
	}

	read, _ := r.Get("read_file")
	out, err := read.Execute(context.Background(), map[string]any{"path": "out/note.txt"})
	if err != nil {
		t.Fatalf("read_file: %v", err)
	}
	if out.(string) != "hello" {
		t.Errorf("expected hello, got %q", out)
	}

	// The file lands under the registry's work dir.
	if _, err := os.Stat(filepath.Join(dir, "out", "note.txt")); err != nil {
		t.Errorf("expected file under work dir: %v", err)
	}
}

func TestSleepToolHonorsContext(t *testing.T) {
	r := NewRegistry()
	if err := RegisterBuiltins(r, t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sleep, _ := r.Get("sleep")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := sleep.Execute(ctx, map[string]any{"duration": "5s"})
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("sleep did not honor context, took %v", elapsed)
	}
}
