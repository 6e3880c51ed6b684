// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/forge-tui/internal/errs"
)

func TestTurnStore_AppendAndLoad(t *testing.T) {
	store := NewTurnStore(t.TempDir())

	turn := NewTurn("anthropic/claude-3.5-sonnet", "write a parser", "Here you go.\n", []string{"parser_20250314_092653.py"}, 1500*time.Millisecond)

	file, err := store.Append(turn)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if !strings.HasPrefix(file, "conversation_") || !strings.HasSuffix(file, ".json") {
		t.Errorf("filename = %q", file)
	}

	loaded, err := store.Load(file)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Prompt != "write a parser" {
		t.Errorf("Prompt = %q", loaded.Prompt)
	}
	if loaded.ArtifactCount != 1 || len(loaded.Artifacts) != 1 {
		t.Errorf("artifacts = %v (count %d)", loaded.Artifacts, loaded.ArtifactCount)
	}
	if loaded.DurationMs != 1500 {
		t.Errorf("DurationMs = %d", loaded.DurationMs)
	}
}

func TestNewTurn_Metrics(t *testing.T) {
	turn := NewTurn("m", "p", "one two three", nil, 0)

	if turn.WordCount != 3 {
		t.Errorf("WordCount = %d, want 3", turn.WordCount)
	}
	if turn.CharCount != 13 {
		t.Errorf("CharCount = %d, want 13", turn.CharCount)
	}
	if turn.ID == "" {
		t.Error("ID not assigned")
	}
}

func TestTurnStore_SameSecondCollision(t *testing.T) {
	store := NewTurnStore(t.TempDir())

	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	a := &Turn{Timestamp: ts, Prompt: "a", Response: "a"}
	b := &Turn{Timestamp: ts, Prompt: "b", Response: "b"}

	fileA, err := store.Append(a)
	if err != nil {
		t.Fatal(err)
	}
	fileB, err := store.Append(b)
	if err != nil {
		t.Fatal(err)
	}

	if fileA == fileB {
		t.Fatalf("same-second turns share filename %q", fileA)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Errorf("got %d turns, want 2", len(metas))
	}
}

func TestTurnStore_ListChronological(t *testing.T) {
	store := NewTurnStore(t.TempDir())

	for i, ts := range []time.Time{
		time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
	} {
		if _, err := store.Append(&Turn{Timestamp: ts, Prompt: strings.Repeat("x", i+1)}); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 3 {
		t.Fatalf("got %d turns, want 3", len(metas))
	}
	for i := 1; i < len(metas); i++ {
		if metas[i].Timestamp.Before(metas[i-1].Timestamp) {
			t.Errorf("turns out of order at %d", i)
		}
	}
}

func TestTurnStore_LoadByIndex(t *testing.T) {
	store := NewTurnStore(t.TempDir())

	if _, err := store.Append(&Turn{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Prompt: "first"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(&Turn{Timestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Prompt: "second"}); err != nil {
		t.Fatal(err)
	}

	turn, err := store.LoadByIndex(-1)
	if err != nil {
		t.Fatalf("LoadByIndex(-1) error = %v", err)
	}
	if turn.Prompt != "second" {
		t.Errorf("LoadByIndex(-1).Prompt = %q", turn.Prompt)
	}

	if _, err := store.LoadByIndex(5); !errs.IsNotFound(err) {
		t.Errorf("out-of-range error = %v, want not-found", err)
	}
}

func TestTurnStore_Load_NotFound(t *testing.T) {
	store := NewTurnStore(t.TempDir())

	_, err := store.Load("conversation_19700101_000000.json")
	if !errs.IsNotFound(err) {
		t.Errorf("Load() error = %v, want not-found", err)
	}
}

func TestTurnStore_Search(t *testing.T) {
	store := NewTurnStore(t.TempDir())

	if _, err := store.Append(&Turn{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Prompt: "build a scraper", Response: "sure"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Append(&Turn{Timestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Prompt: "hello", Response: "general Kenobi"}); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search("SCRAPER")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Preview, "scraper") {
		t.Errorf("Search() = %v", results)
	}

	// Matches response content too.
	results, _ = store.Search("kenobi")
	if len(results) != 1 {
		t.Errorf("response search = %v", results)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(\"\") = %d", got)
	}

	// 100 words of 4 chars plus separators: both heuristics land near
	// each other, average stays in a sane band.
	text := strings.Repeat("word ", 100)
	got := EstimateTokens(text)
	if got < 100 || got > 200 {
		t.Errorf("EstimateTokens() = %d, want 100-200", got)
	}

	// Appending text never lowers the estimate.
	if longer := EstimateTokens(text + text); longer < got {
		t.Errorf("estimate shrank: %d then %d", got, longer)
	}
}

func TestTurn_ExportMarkdown(t *testing.T) {
	turn := &Turn{
		Timestamp: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		Model:     "anthropic/claude-3.5-sonnet",
		Prompt:    "question",
		Response:  "answer",
		Artifacts: []string{"a_20250314_092653.py"},
	}

	md := turn.ExportMarkdown()
	for _, want := range []string{"**User**", "**Assistant**", "question", "answer", "a_20250314_092653.py"} {
		if !strings.Contains(md, want) {
			t.Errorf("ExportMarkdown() missing %q", want)
		}
	}
}
