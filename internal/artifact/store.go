// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// store.go - Filesystem persistence for extracted artifacts.
//
// Each project owns one artifact directory. Writes are atomic and never
// overwrite an existing artifact; collisions get numeric suffixes.

package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/forge-tui/internal/errs"
	"github.com/jeranaias/forge-tui/internal/extract"
	"github.com/jeranaias/forge-tui/internal/util"
)

// Store persists artifacts for a single project.
type Store struct {
	// Dir is the project's artifact directory.
	Dir string
}

// NewStore returns a Store rooted at dir. The directory is created
// lazily on the first write.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Info describes one stored artifact.
type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// =============================================================================
// WRITE PATH
// =============================================================================

// Save writes each fragment to its own uniquely named file and returns
// the assigned filenames in fragment order. Fragments with no usable
// title fall back to a name inferred from their content, then to a
// sequence-numbered stem. A failure on one fragment does not abort the
// rest; all failures are joined into the returned error.
func (s *Store) Save(frags []extract.Fragment, now time.Time) ([]string, error) {
	if len(frags) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, errs.NewIOError("create", s.Dir, err)
	}

	taken, err := s.existingNames()
	if err != nil {
		return nil, err
	}

	var names []string
	var failures []error
	for i, frag := range frags {
		lang := frag.Language
		if lang == "" {
			lang = extract.DetectLanguage(frag.Content)
		}

		title := frag.Title
		if title == "" {
			title = extract.TitleFromContent(frag.Content, lang)
		}

		name := UniqueName(taken, FileName(title, lang, i+1, now))
		path := filepath.Join(s.Dir, name)

		content := frag.Content
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}

		if err := util.AtomicWriteFile(path, []byte(content), 0644); err != nil {
			failures = append(failures, errs.NewIOError("write", path, err))
			continue
		}
		names = append(names, name)
	}

	return names, errors.Join(failures...)
}

// existingNames returns the set of filenames already present in the
// store, so same-second saves across runs still get unique names.
func (s *Store) existingNames() (map[string]bool, error) {
	taken := make(map[string]bool)

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return taken, nil
		}
		return nil, errs.NewIOError("read", s.Dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			taken[entry.Name()] = true
		}
	}
	return taken, nil
}

// =============================================================================
// READ PATH
// =============================================================================

// List returns all stored artifacts sorted by name. An absent artifact
// directory is an empty store, not an error.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.NewIOError("read", s.Dir, err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Name:    entry.Name(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Read returns the content of a stored artifact by name.
// SECURITY: Rejects names that could escape the artifact directory.
func (s *Store) Read(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NewNotFoundError("artifact", name)
		}
		return nil, errs.NewIOError("read", name, err)
	}
	return data, nil
}

// Path returns the absolute-ish path for a stored artifact without
// checking existence.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// =============================================================================
// BULK OPERATIONS
// =============================================================================

// ExportAll copies every artifact into destDir and returns the number
// copied. Individual copy failures are accumulated, not fatal.
func (s *Store) ExportAll(destDir string) (int, error) {
	infos, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(infos) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, errs.NewIOError("create", destDir, err)
	}

	copied := 0
	var failures []error
	for _, info := range infos {
		src := filepath.Join(s.Dir, info.Name)
		dst := filepath.Join(destDir, info.Name)
		if err := util.CopyFile(src, dst); err != nil {
			failures = append(failures, errs.NewIOError("copy", info.Name, err))
			continue
		}
		copied++
	}

	return copied, errors.Join(failures...)
}

// ClearAll deletes every artifact after the confirm callback approves.
// Returns the number deleted; zero with a nil error when the store is
// empty or the user declines.
func (s *Store) ClearAll(confirm func(count int) bool) (int, error) {
	infos, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(infos) == 0 {
		return 0, nil
	}

	if confirm != nil && !confirm(len(infos)) {
		return 0, nil
	}

	deleted := 0
	var failures []error
	for _, info := range infos {
		if err := os.Remove(filepath.Join(s.Dir, info.Name)); err != nil {
			failures = append(failures, errs.NewIOError("remove", info.Name, err))
			continue
		}
		deleted++
	}

	return deleted, errors.Join(failures...)
}

// validateName rejects artifact names containing path separators or
// parent references.
func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return errs.NewValidationError("artifact name", name, "must be a bare filename, not a path")
	}
	return nil
}
