// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/forge-tui/internal/errs"
	"github.com/jeranaias/forge-tui/internal/extract"
)

var testTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestStore_Save(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "artifacts"))

	frags := []extract.Fragment{
		{Title: "Load Balancer", Language: "python", Content: "import socket\n"},
		{Title: "", Language: "go", Content: "package main\n"},
	}

	names, err := store.Save(frags, testTime)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}

	if names[0] != "load_balancer_20250314_092653.python" {
		t.Errorf("names[0] = %q", names[0])
	}
	if !strings.HasSuffix(names[1], "_20250314_092653.go") {
		t.Errorf("names[1] = %q", names[1])
	}

	data, err := store.Read(names[0])
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(data) != "import socket\n" {
		t.Errorf("content = %q", data)
	}
}

func TestStore_Save_KeepsFenceTagAsExtension(t *testing.T) {
	store := NewStore(t.TempDir())

	body := "class ImprovedClass:\n" + strings.Repeat("    value = 1\n", 40)
	response := "### Improved Class\n```python\n" + body + "```\n"

	frags := extract.Extract(response, 100)
	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1", len(frags))
	}

	names, err := store.Save(frags, testTime)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if names[0] != "improved_class_20250314_092653.python" {
		t.Errorf("names[0] = %q, want improved_class_20250314_092653.python", names[0])
	}
}

func TestStore_Save_SameTitleSameSecond(t *testing.T) {
	store := NewStore(t.TempDir())

	frags := []extract.Fragment{
		{Title: "setup", Language: "bash", Content: "echo one\n"},
		{Title: "setup", Language: "bash", Content: "echo two\n"},
	}

	names, err := store.Save(frags, testTime)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if names[0] == names[1] {
		t.Fatalf("duplicate names assigned: %q", names[0])
	}
	if names[1] != "setup_20250314_092653_2.bash" {
		t.Errorf("names[1] = %q", names[1])
	}
}

func TestStore_Save_CollidesWithExistingFile(t *testing.T) {
	dir := t.TempDir()
	existing := "setup_20250314_092653.bash"
	if err := os.WriteFile(filepath.Join(dir, existing), []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir)
	names, err := store.Save([]extract.Fragment{
		{Title: "setup", Language: "bash", Content: "new\n"},
	}, testTime)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if names[0] == existing {
		t.Fatal("existing artifact would have been overwritten")
	}

	data, _ := os.ReadFile(filepath.Join(dir, existing))
	if string(data) != "old\n" {
		t.Error("existing artifact content changed")
	}
}

func TestStore_Save_InfersTitleAndLanguage(t *testing.T) {
	store := NewStore(t.TempDir())

	names, err := store.Save([]extract.Fragment{
		{Language: "python", Content: "class ReportBuilder:\n    pass\n"},
	}, testTime)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(names[0], "reportbuilder_") {
		t.Errorf("inferred name = %q, want reportbuilder_ prefix", names[0])
	}
}

func TestStore_List(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Save([]extract.Fragment{
		{Title: "beta", Language: "python", Content: "b = 2\n"},
		{Title: "alpha", Language: "python", Content: "a = 1\n"},
	}, testTime)
	if err != nil {
		t.Fatal(err)
	}

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(infos))
	}
	if !strings.HasPrefix(infos[0].Name, "alpha_") {
		t.Errorf("list not sorted by name: %q first", infos[0].Name)
	}
}

func TestStore_List_MissingDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "never-created"))

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("got %d artifacts, want 0", len(infos))
	}
}

func TestStore_Read_NotFound(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Read("missing.py")
	if !errs.IsNotFound(err) {
		t.Errorf("Read() error = %v, want NotFoundError", err)
	}
}

func TestStore_Read_RejectsPaths(t *testing.T) {
	store := NewStore(t.TempDir())

	for _, name := range []string{"../etc/passwd", "a/b.py", ""} {
		if _, err := store.Read(name); !errs.IsValidation(err) {
			t.Errorf("Read(%q) error = %v, want ValidationError", name, err)
		}
	}
}

func TestStore_ExportAll(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Save([]extract.Fragment{
		{Title: "one", Language: "python", Content: "1\n"},
		{Title: "two", Language: "python", Content: "2\n"},
	}, testTime); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "export")
	count, err := store.ExportAll(dest)
	if err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	if count != 2 {
		t.Errorf("exported %d, want 2", count)
	}

	entries, _ := os.ReadDir(dest)
	if len(entries) != 2 {
		t.Errorf("dest has %d files, want 2", len(entries))
	}
}

func TestStore_ClearAll(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, err := store.Save([]extract.Fragment{
		{Title: "one", Language: "python", Content: "1\n"},
	}, testTime); err != nil {
		t.Fatal(err)
	}

	// Declined confirmation deletes nothing.
	count, err := store.ClearAll(func(int) bool { return false })
	if err != nil || count != 0 {
		t.Fatalf("declined ClearAll() = (%d, %v), want (0, nil)", count, err)
	}
	if infos, _ := store.List(); len(infos) != 1 {
		t.Fatal("artifact deleted despite declined confirmation")
	}

	var asked int
	count, err = store.ClearAll(func(n int) bool { asked = n; return true })
	if err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if count != 1 || asked != 1 {
		t.Errorf("ClearAll() = %d (asked %d), want 1", count, asked)
	}
	if infos, _ := store.List(); len(infos) != 0 {
		t.Error("artifacts remain after ClearAll")
	}
}
