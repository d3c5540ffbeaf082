// Package fs is the filesystem layer of the file store.
//
// Document files are only ever replaced whole: [FS.WriteFile] swaps in new
// content atomically and [FS.CreateFile] does the same but refuses to replace
// an existing file. [Real] works on the OS filesystem; [Chaos] wraps another
// FS and injects failures in tests.
//
//	fsys := fs.NewReal()
//	err := fsys.CreateFile("data/identity/42.xml", doc)
//	if errors.Is(err, os.ErrExist) {
//	    // someone else created it first
//	}
package fs

import "os"

// Default permissions for files and the directories created for them.
const (
	DefaultFilePerm os.FileMode = 0o644
	DefaultDirPerm  os.FileMode = 0o755
)

// FS is the set of filesystem operations a document store needs. Paths use
// OS semantics, not the slash-separated paths of io/fs.
type FS interface {
	// ReadFile reads a whole file. A missing file fails with an error
	// matching [os.ErrNotExist].
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path with data, creating missing parent
	// directories. Readers see the old or the new content, never a mix.
	WriteFile(path string, data []byte) error

	// CreateFile is WriteFile for a path that must not exist yet. If it
	// does, CreateFile fails with an error matching [os.ErrExist] and leaves
	// the file alone.
	CreateFile(path string, data []byte) error

	// Remove deletes the file at path. A missing file is not an error.
	Remove(path string) error
}
