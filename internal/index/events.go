package index

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/Voelzke/notehub/internal/storage"
)

// Events translates filesystem change notifications into index mutations.
// Paths outside any owner's document root, or without the document
// extension, are ignored. Handler errors are logged, never propagated:
// the periodic reconciliation pass repairs whatever an event missed.
type Events struct {
	syncer *Syncer
	store  storage.Provider
	base   string
	logger *slog.Logger

	// Callback, when set, is invoked after each applied mutation with the
	// event kind ("created", "written", "deleted", "renamed") and the
	// root-relative document path. Used to fan out live updates.
	Callback func(kind, owner, rel string)
}

// NewEvents creates an adapter rooted at the same base directory as the
// store it mutates through.
func NewEvents(syncer *Syncer, store storage.Provider, base string, logger *slog.Logger) *Events {
	return &Events{syncer: syncer, store: store, base: base, logger: logger}
}

// parsePath splits an absolute path into (owner, root-relative path) when
// it denotes a document inside some owner's root, i.e. matches
// <base>/<owner>/Notes/...*.md.
func (e *Events) parsePath(abs string) (owner, rel string, ok bool) {
	clean, err := filepath.Rel(e.base, abs)
	if err != nil || strings.HasPrefix(clean, "..") {
		return "", "", false
	}
	parts := strings.Split(filepath.ToSlash(clean), "/")
	if len(parts) < 3 || parts[1] != storage.RootFolderName {
		return "", "", false
	}
	if !strings.HasSuffix(parts[len(parts)-1], storage.DocExt) {
		return "", "", false
	}
	return parts[0], path.Join(parts[2:]...), true
}

// HandleCreated indexes a newly appearing document.
func (e *Events) HandleCreated(abs string) {
	e.upsertFromPath("created", abs)
}

// HandleWritten re-indexes a document after its content changed.
func (e *Events) HandleWritten(abs string) {
	e.upsertFromPath("written", abs)
}

func (e *Events) upsertFromPath(kind, abs string) {
	owner, rel, ok := e.parsePath(abs)
	if !ok {
		return
	}
	doc, err := e.store.StatPath(owner, rel)
	if err != nil {
		e.logger.Warn("events: stat failed",
			slog.String("path", abs), slog.String("error", err.Error()))
		return
	}
	raw, err := e.store.ReadPath(owner, rel)
	if err != nil {
		e.logger.Warn("events: read failed",
			slog.String("path", abs), slog.String("error", err.Error()))
		return
	}
	if err := e.syncer.SyncDocument(owner, doc, raw); err != nil {
		e.logger.Warn("events: index update failed",
			slog.String("path", abs), slog.String("error", err.Error()))
		return
	}
	e.notify(kind, owner, rel)
}

// HandleDeleted removes a vanished document from the index. The identity is
// resolved from the indexed location since the file itself is gone; an
// unknown location is a no-op.
func (e *Events) HandleDeleted(abs string) {
	owner, rel, ok := e.parsePath(abs)
	if !ok {
		return
	}
	dir, title := splitRel(rel)
	if err := e.syncer.DeleteByLocation(owner, dir, title); err != nil {
		e.logger.Warn("events: delete failed",
			slog.String("path", abs), slog.String("error", err.Error()))
		return
	}
	e.notify("deleted", owner, rel)
}

// HandleRenamed reconciles a move. A move out of the managed tree behaves
// as a deletion of the source; a move into (or within) the tree behaves as
// an upsert of the destination. When neither endpoint is inside the tree
// the event is ignored.
func (e *Events) HandleRenamed(srcAbs, dstAbs string) {
	srcOwner, srcRel, srcOK := e.parsePath(srcAbs)
	_, _, dstOK := e.parsePath(dstAbs)

	if srcOK && !dstOK {
		dir, title := splitRel(srcRel)
		if err := e.syncer.DeleteByLocation(srcOwner, dir, title); err != nil {
			e.logger.Warn("events: rename delete failed",
				slog.String("path", srcAbs), slog.String("error", err.Error()))
			return
		}
		e.notify("renamed", srcOwner, srcRel)
		return
	}
	if dstOK {
		e.upsertFromPath("renamed", dstAbs)
	}
}

func (e *Events) notify(kind, owner, rel string) {
	if e.Callback != nil {
		e.Callback(kind, owner, rel)
	}
}

// splitRel splits a root-relative document path into its folder part and
// the title (filename without the extension).
func splitRel(rel string) (dir, title string) {
	dir, name := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	return dir, strings.TrimSuffix(name, storage.DocExt)
}
