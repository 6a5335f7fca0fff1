package index

// Repository defines the index row operations. Consumers should depend on
// this interface rather than the concrete *DB type to facilitate testing
// with mocks.
type Repository interface {
	Count(owner string) (int, error)
	ListByOwner(owner string) ([]NoteRow, error)
	ListNotes(owner string) ([]NoteRow, error)
	Templates(owner string) ([]NoteRow, error)
	TitleMatches(owner, query string) ([]NoteRow, error)
	PendingReminderCandidates(owner string) ([]NoteRow, error)
	GetByFileID(fileID uint64) (NoteRow, bool, error)
	FileIDByPath(owner, dir, title string) (uint64, bool, error)
	ModifiedMap(owner string) (map[uint64]RowStamp, error)
	Upsert(owner string, r NoteRow) error
	DeleteByFileID(fileID uint64) error
	DeleteAllForOwner(owner string) error
	SetSharedFlag(fileID uint64, shared bool) error
	Close() error
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)
