package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Voelzke/notehub/internal/apperr"
)

// FS implements Provider on the local file system. The layout is
// <base>/<owner>/Notes/..., with one subtree per owner.
type FS struct {
	base string // absolute path to the directory holding owner trees

	mu    sync.Mutex
	paths map[string]map[uint64]string // owner → id → root-relative path
}

// NewFS creates a Provider rooted at base. The base directory must exist;
// owner roots underneath it are created lazily via EnsureRoot.
func NewFS(base string) (*FS, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat base: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: base is not a directory: %s", abs)
	}
	return &FS{base: abs, paths: make(map[string]map[uint64]string)}, nil
}

// Base returns the absolute base directory holding all owner trees.
func (f *FS) Base() string { return f.base }

// rootDir returns the absolute document root for an owner without creating it.
func (f *FS) rootDir(owner string) (string, error) {
	if owner == "" || strings.ContainsAny(owner, `/\`) {
		return "", fmt.Errorf("storage: invalid owner %q", owner)
	}
	return filepath.Join(f.base, owner, RootFolderName), nil
}

// safePath resolves rel against the owner root and rejects anything that
// escapes it.
func (f *FS) safePath(owner, rel string) (string, error) {
	root, err := f.rootDir(owner)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(root, cleaned)
	if abs != root && !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes document root: %s", rel)
	}
	return abs, nil
}

// EnsureRoot creates <base>/<owner>/Notes if absent.
func (f *FS) EnsureRoot(owner string) error {
	root, err := f.rootDir(owner)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("storage: create root for %s: %w", owner, err)
	}
	return nil
}

// Owners lists every owner directory under the base.
func (f *FS) Owners() ([]string, error) {
	entries, err := os.ReadDir(f.base)
	if err != nil {
		return nil, fmt.Errorf("storage: list owners: %w", err)
	}
	var owners []string
	for _, e := range entries {
		if e.IsDir() {
			owners = append(owners, e.Name())
		}
	}
	return owners, nil
}

// List walks the owner's root and returns every managed document. An absent
// root yields an empty list, not an error.
func (f *FS) List(owner string) ([]DocInfo, error) {
	root, err := f.rootDir(owner)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var out []DocInfo
	ids := make(map[uint64]string)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), DocExt) {
			return nil
		}
		doc, statErr := f.docInfo(root, p)
		if statErr != nil {
			return statErr
		}
		ids[doc.ID] = doc.Rel()
		out = append(out, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", owner, err)
	}

	f.mu.Lock()
	f.paths[owner] = ids
	f.mu.Unlock()
	return out, nil
}

// docInfo builds a DocInfo for the file at abs under root.
func (f *FS) docInfo(root, abs string) (DocInfo, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return DocInfo{}, err
	}
	id, ctime, err := statNode(abs)
	if err != nil {
		return DocInfo{}, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return DocInfo{}, err
	}
	rel = filepath.ToSlash(rel)
	dir := ""
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		dir = rel[:i]
	}
	return DocInfo{
		ID:      id,
		Name:    filepath.Base(abs),
		Dir:     dir,
		ModTime: info.ModTime(),
		CTime:   ctime,
	}, nil
}

// ReadPath returns the text of the document at the root-relative path.
func (f *FS) ReadPath(owner, rel string) (string, error) {
	abs, err := f.safePath(owner, rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("storage: read %s: %w", rel, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return string(data), nil
}

// StatPath returns the document at the root-relative path.
func (f *FS) StatPath(owner, rel string) (DocInfo, error) {
	abs, err := f.safePath(owner, rel)
	if err != nil {
		return DocInfo{}, err
	}
	root, _ := f.rootDir(owner)
	doc, err := f.docInfo(root, abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DocInfo{}, fmt.Errorf("storage: stat %s: %w", rel, apperr.ErrNotFound)
		}
		return DocInfo{}, fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	f.cachePath(owner, doc)
	return doc, nil
}

// Read resolves id and returns the document plus its text.
func (f *FS) Read(owner string, id uint64) (DocInfo, string, error) {
	doc, abs, err := f.resolve(owner, id)
	if err != nil {
		return DocInfo{}, "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return DocInfo{}, "", fmt.Errorf("storage: read %d: %w", id, err)
	}
	return doc, string(data), nil
}

// Write replaces the document text in place. The write is deliberately not
// tmp-and-rename: a rename would assign the file a new identity.
func (f *FS) Write(owner string, id uint64, text string) error {
	_, abs, err := f.resolve(owner, id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(abs, []byte(text), 0o644); err != nil {
		return fmt.Errorf("storage: write %d: %w", id, err)
	}
	return nil
}

// Create writes a new document and returns its assigned identity.
func (f *FS) Create(owner, dir, name, text string) (DocInfo, error) {
	if !strings.HasSuffix(name, DocExt) {
		return DocInfo{}, fmt.Errorf("storage: not a managed document name: %s", name)
	}
	root, err := f.rootDir(owner)
	if err != nil {
		return DocInfo{}, err
	}
	abs, err := f.safePath(owner, strings.TrimPrefix(dir+"/"+name, "/"))
	if err != nil {
		return DocInfo{}, err
	}
	if _, err := os.Stat(abs); err == nil {
		return DocInfo{}, fmt.Errorf("storage: create %s: %w", name, apperr.ErrAlreadyExists)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return DocInfo{}, fmt.Errorf("storage: mkdir: %w", err)
	}
	if err := os.WriteFile(abs, []byte(text), 0o644); err != nil {
		return DocInfo{}, fmt.Errorf("storage: create %s: %w", name, err)
	}
	doc, err := f.docInfo(root, abs)
	if err != nil {
		return DocInfo{}, fmt.Errorf("storage: stat created %s: %w", name, err)
	}
	f.cachePath(owner, doc)
	return doc, nil
}

// Rename changes the document's file name within its directory. The identity
// is preserved.
func (f *FS) Rename(owner string, id uint64, newName string) (DocInfo, error) {
	if !strings.HasSuffix(newName, DocExt) {
		return DocInfo{}, fmt.Errorf("storage: not a managed document name: %s", newName)
	}
	_, abs, err := f.resolve(owner, id)
	if err != nil {
		return DocInfo{}, err
	}
	newAbs := filepath.Join(filepath.Dir(abs), newName)
	if err := os.Rename(abs, newAbs); err != nil {
		return DocInfo{}, fmt.Errorf("storage: rename %d: %w", id, err)
	}
	root, _ := f.rootDir(owner)
	renamed, err := f.docInfo(root, newAbs)
	if err != nil {
		return DocInfo{}, fmt.Errorf("storage: stat renamed %d: %w", id, err)
	}
	f.cachePath(owner, renamed)
	return renamed, nil
}

// Delete removes the document.
func (f *FS) Delete(owner string, id uint64) error {
	_, abs, err := f.resolve(owner, id)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %d: %w", id, err)
	}
	f.mu.Lock()
	if ids, ok := f.paths[owner]; ok {
		delete(ids, id)
	}
	f.mu.Unlock()
	return nil
}

// resolve maps an identity to its current path, rescanning the tree when the
// cached path is stale. A deleted-then-referenced identity surfaces exactly
// like a never-existing one.
func (f *FS) resolve(owner string, id uint64) (DocInfo, string, error) {
	root, err := f.rootDir(owner)
	if err != nil {
		return DocInfo{}, "", err
	}

	f.mu.Lock()
	rel, ok := f.paths[owner][id]
	f.mu.Unlock()

	if ok {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if doc, err := f.docInfo(root, abs); err == nil && doc.ID == id {
			return doc, abs, nil
		}
	}

	// Cache miss or stale entry: rescan.
	docs, err := f.List(owner)
	if err != nil {
		return DocInfo{}, "", err
	}
	for _, doc := range docs {
		if doc.ID == id {
			return doc, filepath.Join(root, filepath.FromSlash(doc.Rel())), nil
		}
	}
	return DocInfo{}, "", fmt.Errorf("storage: document %d: %w", id, apperr.ErrNotFound)
}

func (f *FS) cachePath(owner string, doc DocInfo) {
	f.mu.Lock()
	if f.paths[owner] == nil {
		f.paths[owner] = make(map[uint64]string)
	}
	f.paths[owner][doc.ID] = doc.Rel()
	f.mu.Unlock()
}
