// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation turn persistence for forge.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/forge-tui/internal/errs"
	"github.com/jeranaias/forge-tui/internal/util"
)

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one recorded prompt/response exchange.
type Turn struct {
	// Identity
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`

	// Exchange
	Prompt   string `json:"prompt"`
	Response string `json:"response"`

	// Response metrics
	CharCount     int   `json:"char_count"`
	WordCount     int   `json:"word_count"`
	ArtifactCount int   `json:"artifact_count"`
	DurationMs    int64 `json:"duration_ms,omitempty"`

	// Artifacts holds the filenames extracted from this response.
	Artifacts []string `json:"artifacts,omitempty"`
}

// NewTurn builds a Turn with its metrics filled in from the response.
func NewTurn(model, prompt, response string, artifacts []string, duration time.Duration) *Turn {
	return &Turn{
		ID:            uuid.NewString(),
		Timestamp:     time.Now(),
		Model:         model,
		Prompt:        prompt,
		Response:      response,
		CharCount:     len(response),
		WordCount:     len(strings.Fields(response)),
		ArtifactCount: len(artifacts),
		DurationMs:    duration.Milliseconds(),
		Artifacts:     artifacts,
	}
}

// EstimateTokens approximates the token count of text by averaging a
// words-based and a chars-based heuristic. Good enough for budget
// display, not billing.
func EstimateTokens(text string) int {
	words := float64(len(strings.Fields(text)))
	chars := float64(len(text))
	return int((words/0.75 + chars/4) / 2)
}

// TurnMeta is the listing view of a recorded turn.
type TurnMeta struct {
	ID            string    `json:"id"`
	File          string    `json:"file"`
	Timestamp     time.Time `json:"timestamp"`
	Model         string    `json:"model"`
	Preview       string    `json:"preview"` // First prompt line, truncated
	ArtifactCount int       `json:"artifact_count"`
}

// =============================================================================
// TURN STORE
// =============================================================================

// TurnStore persists turns as conversation_<timestamp>.json files in a
// project's conversations directory.
type TurnStore struct {
	// Dir is the conversations directory of one project.
	Dir string
}

// NewTurnStore creates a store rooted at dir.
func NewTurnStore(dir string) *TurnStore {
	return &TurnStore{Dir: dir}
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Append persists a turn and returns the filename it was written to.
// Two turns in the same second get distinct numeric suffixes.
func (s *TurnStore) Append(turn *Turn) (string, error) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(turn, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("conversation_%s.json", turn.Timestamp.Format("20060102_150405"))
	for n := 2; s.exists(name); n++ {
		name = fmt.Sprintf("conversation_%s_%d.json", turn.Timestamp.Format("20060102_150405"), n)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(filepath.Join(s.Dir, name), data, 0644); err != nil {
		return "", err
	}

	return name, nil
}

func (s *TurnStore) exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.Dir, name))
	return err == nil
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a turn by its filename.
func (s *TurnStore) Load(file string) (*Turn, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, file))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NewNotFoundError("conversation", file)
		}
		return nil, err
	}

	var turn Turn
	if err := json.Unmarshal(data, &turn); err != nil {
		return nil, err
	}

	return &turn, nil
}

// LoadByIndex loads a turn by its chronological index (0 = oldest).
// Negative indexes count from the end, so -1 is the most recent.
func (s *TurnStore) LoadByIndex(index int) (*Turn, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}

	if index < 0 {
		index += len(metas)
	}
	if index < 0 || index >= len(metas) {
		return nil, errs.NewNotFoundError("conversation", fmt.Sprint(index))
	}

	return s.Load(metas[index].File)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all recorded turns in chronological order.
func (s *TurnStore) List() ([]TurnMeta, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var metas []TurnMeta

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		turn, err := s.Load(entry.Name())
		if err != nil {
			continue // Skip corrupted files
		}

		preview := turn.Prompt
		if idx := strings.IndexByte(preview, '\n'); idx >= 0 {
			preview = preview[:idx]
		}
		preview = util.TruncateRunes(preview, 80)

		metas = append(metas, TurnMeta{
			ID:            turn.ID,
			File:          entry.Name(),
			Timestamp:     turn.Timestamp,
			Model:         turn.Model,
			Preview:       preview,
			ArtifactCount: turn.ArtifactCount,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		if metas[i].Timestamp.Equal(metas[j].Timestamp) {
			return metas[i].File < metas[j].File
		}
		return metas[i].Timestamp.Before(metas[j].Timestamp)
	})

	return metas, nil
}

// Search returns turns whose prompt or response contains the query
// string (case-insensitive), in chronological order.
func (s *TurnStore) Search(query string) ([]TurnMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	query = strings.ToLower(query)
	var results []TurnMeta

	for _, meta := range all {
		turn, err := s.Load(meta.File)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(turn.Prompt), query) ||
			strings.Contains(strings.ToLower(turn.Response), query) {
			results = append(results, meta)
		}
	}

	return results, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the turn as a Markdown document.
func (t *Turn) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# Conversation " + t.Timestamp.Format("2006-01-02 15:04:05") + "\n\n")
	sb.WriteString("Model: " + t.Model + "\n\n")
	sb.WriteString("---\n\n")
	sb.WriteString("**User**:\n\n" + t.Prompt + "\n\n---\n\n")
	sb.WriteString("**Assistant**:\n\n" + t.Response + "\n")

	if len(t.Artifacts) > 0 {
		sb.WriteString("\n---\n\nArtifacts:\n\n")
		for _, name := range t.Artifacts {
			sb.WriteString("- " + name + "\n")
		}
	}

	return sb.String()
}
