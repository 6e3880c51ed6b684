// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// project.go - Project workspaces and their on-disk manifest.
//
// A project is a directory under the projects root:
//
//	<root>/<name>/files/          reference files sent as context
//	<root>/<name>/artifacts/      extracted code artifacts
//	<root>/<name>/conversations/  recorded chat turns
//	<root>/<name>/metadata.json   manifest of added files
//
// The files directory on disk is the source of truth; the manifest
// records provenance and is reconciled against disk by Sync.

package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/forge-tui/internal/errs"
	"github.com/jeranaias/forge-tui/internal/util"
)

const manifestFile = "metadata.json"

// namePattern restricts project names to predictable directory names.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// FileEntry records provenance for one file added to a project.
type FileEntry struct {
	AddedAt      time.Time `json:"added_at"`
	OriginalPath string    `json:"original_path,omitempty"`
	Size         int64     `json:"size"`
}

// Manifest is the persisted project metadata.
type Manifest struct {
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
	Files     map[string]FileEntry `json:"files"`
}

// Project is an open project workspace.
type Project struct {
	Name string
	Root string

	manifest Manifest
}

// FilesDir returns the directory holding the project's context files.
func (p *Project) FilesDir() string { return filepath.Join(p.Root, "files") }

// ArtifactsDir returns the directory holding extracted artifacts.
func (p *Project) ArtifactsDir() string { return filepath.Join(p.Root, "artifacts") }

// ConversationsDir returns the directory holding recorded chat turns.
func (p *Project) ConversationsDir() string { return filepath.Join(p.Root, "conversations") }

// CreatedAt returns the project creation time from the manifest.
func (p *Project) CreatedAt() time.Time { return p.manifest.CreatedAt }

// =============================================================================
// FILE MANAGEMENT
// =============================================================================

// AddFile copies src into the project's files directory under its base
// name, overwriting any previous copy, and records it in the manifest.
func (p *Project) AddFile(src string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errs.NewNotFoundError("file", src)
		}
		return errs.NewIOError("stat", src, err)
	}
	if info.IsDir() {
		return errs.NewValidationError("file", src, "is a directory")
	}

	name := filepath.Base(src)
	dst := filepath.Join(p.FilesDir(), name)
	if err := util.CopyFile(src, dst); err != nil {
		return errs.NewIOError("copy", src, err)
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}
	p.manifest.Files[name] = FileEntry{
		AddedAt:      time.Now(),
		OriginalPath: abs,
		Size:         info.Size(),
	}
	return p.saveManifest()
}

// RemoveFile deletes a context file from the project and drops its
// manifest entry.
func (p *Project) RemoveFile(name string) error {
	if name != filepath.Base(name) {
		return errs.NewValidationError("file name", name, "must be a bare filename, not a path")
	}

	path := filepath.Join(p.FilesDir(), name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errs.NewNotFoundError("file", name)
		}
		return errs.NewIOError("remove", path, err)
	}

	delete(p.manifest.Files, name)
	return p.saveManifest()
}

// FileInfo describes one context file on disk.
type FileInfo struct {
	Name         string
	Size         int64
	AddedAt      time.Time
	OriginalPath string
}

// ListFiles returns the context files present on disk, sorted by name,
// annotated with manifest provenance where available.
func (p *Project) ListFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(p.FilesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.NewIOError("read", p.FilesDir(), err)
	}

	var infos []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		info := FileInfo{Name: entry.Name(), Size: fi.Size()}
		if meta, ok := p.manifest.Files[entry.Name()]; ok {
			info.AddedAt = meta.AddedAt
			info.OriginalPath = meta.OriginalPath
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Sync reconciles the manifest with the files directory: files dropped
// into the directory by hand gain manifest entries, entries whose files
// vanished are removed. Returns the names added and removed.
func (p *Project) Sync() (added, removed []string, err error) {
	onDisk := make(map[string]int64)

	entries, err := os.ReadDir(p.FilesDir())
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, errs.NewIOError("read", p.FilesDir(), err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		onDisk[entry.Name()] = fi.Size()
	}

	for name, size := range onDisk {
		if _, ok := p.manifest.Files[name]; !ok {
			p.manifest.Files[name] = FileEntry{AddedAt: time.Now(), Size: size}
			added = append(added, name)
		}
	}
	for name := range p.manifest.Files {
		if _, ok := onDisk[name]; !ok {
			delete(p.manifest.Files, name)
			removed = append(removed, name)
		}
	}

	sort.Strings(added)
	sort.Strings(removed)

	if len(added) > 0 || len(removed) > 0 {
		if err := p.saveManifest(); err != nil {
			return added, removed, err
		}
	}
	return added, removed, nil
}

// =============================================================================
// CONTEXT ASSEMBLY
// =============================================================================

// Context concatenates every context file into a single prompt preamble,
// each file introduced by a header line. Unreadable files are skipped.
func (p *Project) Context() (string, error) {
	infos, err := p.ListFiles()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, info := range infos {
		data, err := os.ReadFile(filepath.Join(p.FilesDir(), info.Name))
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "--- File: %s ---\n", info.Name)
		b.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary aggregates a project's on-disk contents.
type Summary struct {
	Name              string
	CreatedAt         time.Time
	FileCount         int
	FileBytes         int64
	ArtifactCount     int
	ArtifactBytes     int64
	ConversationCount int
}

// Summarize walks the project directories and counts what is there.
func (p *Project) Summarize() (Summary, error) {
	s := Summary{Name: p.Name, CreatedAt: p.manifest.CreatedAt}

	files, err := p.ListFiles()
	if err != nil {
		return s, err
	}
	s.FileCount = len(files)
	for _, f := range files {
		s.FileBytes += f.Size
	}

	if entries, err := os.ReadDir(p.ArtifactsDir()); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			s.ArtifactCount++
			if fi, err := entry.Info(); err == nil {
				s.ArtifactBytes += fi.Size()
			}
		}
	}

	if entries, err := os.ReadDir(p.ConversationsDir()); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
				s.ConversationCount++
			}
		}
	}

	return s, nil
}

// =============================================================================
// MANIFEST PERSISTENCE
// =============================================================================

func (p *Project) saveManifest() error {
	data, err := json.MarshalIndent(&p.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(p.Root, manifestFile)
	// RELIABILITY: Atomic write with fsync prevents manifest corruption on crash
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return errs.NewIOError("write", path, err)
	}
	return nil
}

func (p *Project) loadManifest() error {
	path := filepath.Join(p.Root, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Pre-manifest project directory: rebuild from disk.
			p.manifest = Manifest{Name: p.Name, CreatedAt: time.Now(), Files: map[string]FileEntry{}}
			_, _, syncErr := p.Sync()
			return syncErr
		}
		return errs.NewIOError("read", path, err)
	}

	if err := json.Unmarshal(data, &p.manifest); err != nil {
		return fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if p.manifest.Files == nil {
		p.manifest.Files = map[string]FileEntry{}
	}
	return nil
}
