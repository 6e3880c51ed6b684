// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// store.go - Creation, lookup, and listing of project workspaces.

package project

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jeranaias/forge-tui/internal/errs"
)

// Store manages the projects root directory.
type Store struct {
	// Root is the directory containing one subdirectory per project.
	Root string
}

// NewStore returns a Store rooted at root. The directory is created on
// the first Create call.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Create makes a new project workspace with its standard subdirectories
// and an empty manifest. Fails if a project of that name already exists.
func (s *Store) Create(name string) (*Project, error) {
	if !namePattern.MatchString(name) {
		return nil, errs.NewValidationErrorWithExample(
			"project name", name,
			"must start with a letter or digit and contain only letters, digits, '.', '_', '-'",
			"create web-scraper",
		)
	}

	root := filepath.Join(s.Root, name)
	if _, err := os.Stat(root); err == nil {
		return nil, errs.NewAlreadyExistsError("project", name)
	}

	p := &Project{
		Name:     name,
		Root:     root,
		manifest: Manifest{Name: name, CreatedAt: time.Now(), Files: map[string]FileEntry{}},
	}

	for _, dir := range []string{p.FilesDir(), p.ArtifactsDir(), p.ConversationsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errs.NewIOError("create", dir, err)
		}
	}

	if err := p.saveManifest(); err != nil {
		return nil, err
	}
	return p, nil
}

// Open loads an existing project by name.
func (s *Store) Open(name string) (*Project, error) {
	root := filepath.Join(s.Root, name)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errs.NewNotFoundError("project", name)
	}

	p := &Project{Name: name, Root: root}
	if err := p.loadManifest(); err != nil {
		return nil, err
	}
	return p, nil
}

// Exists reports whether a project directory of that name is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(filepath.Join(s.Root, name))
	return err == nil && info.IsDir()
}

// List returns the names of all projects, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.NewIOError("read", s.Root, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
