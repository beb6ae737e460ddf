package tasks

import (
	"errors"
	"testing"
)

func TestDefineAndResolve(t *testing.T) {
	r := NewRegistry()

	if err := r.Define("summarize", map[string]any{"max_tokens": 512, "temperature": 0.3}); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	def, err := r.Resolve("summarize")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if def.Name != "summarize" {
		t.Errorf("expected name summarize, got %q", def.Name)
	}
	if def.Params["max_tokens"] != 512 {
		t.Errorf("expected max_tokens 512, got %v", def.Params["max_tokens"])
	}
}

func TestDefineDuplicate(t *testing.T) {
	r := NewRegistry()

	if err := r.Define("translate", nil); err != nil {
		t.Fatalf("first Define failed: %v", err)
	}

	err := r.Define("translate", map[string]any{"temperature": 0.9})
	if err == nil {
		t.Fatal("expected error for duplicate task")
	}

	var dupErr *DuplicateTaskError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateTaskError, got %T", err)
	}
	if dupErr.Name != "translate" {
		t.Errorf("expected name translate, got %q", dupErr.Name)
	}

	// First definition must survive
	def, err := r.Resolve("translate")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, ok := def.Params["temperature"]; ok {
		t.Error("duplicate definition leaked into registry")
	}
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("missing")
	if err == nil {
		t.Fatal("expected error for unknown task")
	}

	var unknownErr *UnknownTaskError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownTaskError, got %T", err)
	}
	if unknownErr.Name != "missing" {
		t.Errorf("expected name missing, got %q", unknownErr.Name)
	}
}

func TestDefineEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Define("", nil); err == nil {
		t.Fatal("expected error for empty task name")
	}
}

func TestDefineCopiesParams(t *testing.T) {
	r := NewRegistry()

	params := map[string]any{"max_tokens": 100}
	if err := r.Define("qa", params); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	params["max_tokens"] = 9999

	def, _ := r.Resolve("qa")
	if def.Params["max_tokens"] != 100 {
		t.Errorf("definition shares caller's map: got %v", def.Params["max_tokens"])
	}
}

func TestMergeParams(t *testing.T) {
	r := NewRegistry()
	if err := r.Define("chat", map[string]any{"max_tokens": 256, "temperature": 0.7}); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	def, _ := r.Resolve("chat")
	merged := def.MergeParams(map[string]any{"temperature": 0.2, "top_p": 0.9})

	if merged["max_tokens"] != 256 {
		t.Errorf("expected task default max_tokens 256, got %v", merged["max_tokens"])
	}
	if merged["temperature"] != 0.2 {
		t.Errorf("expected override temperature 0.2, got %v", merged["temperature"])
	}
	if merged["top_p"] != 0.9 {
		t.Errorf("expected override top_p 0.9, got %v", merged["top_p"])
	}

	// Inputs untouched
	if def.Params["temperature"] != 0.7 {
		t.Errorf("merge mutated task defaults: %v", def.Params["temperature"])
	}
}

func TestNames(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		if err := r.Define(name, nil); err != nil {
			t.Fatalf("Define %s failed: %v", name, err)
		}
	}

	names := r.Names()
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("expected names[%d]=%s, got %s", i, n, names[i])
		}
	}
}
