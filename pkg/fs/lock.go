package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// LocksDirName is the directory, next to the locked file, that holds lock
// files. Keeping them out of the document directory itself leaves its
// listing untouched.
const LocksDirName = ".locks"

// DefaultLockTimeout is how long [WithLock] callers usually wait.
const DefaultLockTimeout = 2 * time.Second

const lockPollInterval = 10 * time.Millisecond

// ErrLockTimeout is returned when the lock is still held by someone else
// after the timeout.
var ErrLockTimeout = errors.New("lock timeout")

// WithLock runs fn while holding an exclusive flock(2) on the lock file of
// path. The lock file is removed on release. Unix only.
func WithLock(path string, timeout time.Duration, fn func() error) error {
	l, err := acquireLock(path, timeout)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}

	defer l.release()

	return fn()
}

// LockPath returns the lock file used for path.
func LockPath(path string) string {
	return filepath.Join(filepath.Dir(path), LocksDirName, filepath.Base(path)+".lock")
}

type fileLock struct {
	path string
	file *os.File
}

// release removes the lock file while still holding the lock, then unlocks.
func (l *fileLock) release() {
	if l.file == nil {
		return
	}

	_ = os.Remove(l.path)
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}

func acquireLock(path string, timeout time.Duration) (*fileLock, error) {
	lockPath := LockPath(path)
	deadline := time.Now().Add(timeout)

	for {
		err := os.MkdirAll(filepath.Dir(lockPath), DefaultDirPerm)
		if err != nil {
			return nil, fmt.Errorf("creating locks dir: %w", err)
		}

		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, DefaultFilePerm)
		if err != nil {
			return nil, fmt.Errorf("open lock file: %w", err)
		}

		fd := int(file.Fd())

		err = unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if errors.Is(err, unix.EWOULDBLOCK) {
			_ = file.Close()

			if time.Now().After(deadline) {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
			}

			time.Sleep(lockPollInterval)

			continue
		}

		if err != nil {
			_ = file.Close()

			return nil, fmt.Errorf("flock: %w", err)
		}

		// The previous holder may have removed the file between our open and
		// flock. Only the inode currently at lockPath guards the path.
		var opened, current unix.Stat_t

		if unix.Fstat(fd, &opened) != nil || unix.Stat(lockPath, &current) != nil || opened.Ino != current.Ino {
			_ = unix.Flock(fd, unix.LOCK_UN)
			_ = file.Close()

			continue
		}

		return &fileLock{path: lockPath, file: file}, nil
	}
}
