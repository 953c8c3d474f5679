// Package instancelock guarantees that at most one process on a host holds a
// named lock file at a time.
package instancelock

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600

	maxAcquireAttempts = 5
)

var (
	// ErrHeld is returned when another process already holds the lock.
	ErrHeld = errors.New("instance lock held by another process")

	errLockFileOpen     = errors.New("failed to open lock file")
	errLockFileReplaced = errors.New("lock file keeps being replaced")

	// errInodeMismatch means the lock file was replaced between open and flock.
	errInodeMismatch = errors.New("inode mismatch")
)

// Lock is a held instance lock. Call [Lock.Release] to give it up.
type Lock struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Acquire takes an exclusive, non-blocking flock on path, creating the file
// and its parent directory if needed. The holder's pid is written into the
// file for diagnostics.
//
// The lock is tied to the open file description, so it is released when the
// process exits even without calling Release.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return nil, fmt.Errorf("creating lock dir: %w", err)
	}

	for range maxAcquireAttempts {
		lock, err := tryAcquire(path)
		if errors.Is(err, errInodeMismatch) {
			continue
		}

		return lock, err
	}

	return nil, fmt.Errorf("%w: %s", errLockFileReplaced, path)
}

// tryAcquire opens path and flocks it once. It returns errInodeMismatch when
// the file at path was replaced between open and flock.
func tryAcquire(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, filePerms)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errLockFileOpen, err)
	}

	fd := int(file.Fd())

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()

		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s (pid %s)", ErrHeld, path, Holder(path))
		}

		return nil, fmt.Errorf("flock: %w", err)
	}

	if !sameInode(fd, path) {
		_ = unix.Flock(fd, unix.LOCK_UN)
		_ = file.Close()

		return nil, errInodeMismatch
	}

	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}

	return &Lock{path: path, file: file}, nil
}

// sameInode reports whether fd still refers to the file at path. flock locks
// an inode, so a lock taken on a file that was unlinked and recreated guards
// nothing.
func sameInode(fd int, path string) bool {
	var held, current unix.Stat_t

	if err := unix.Fstat(fd, &held); err != nil {
		return false
	}

	if err := unix.Stat(path, &current); err != nil {
		return false
	}

	return held.Dev == current.Dev && held.Ino == current.Ino
}

// Holder returns the pid recorded in the lock file, or "unknown".
func Holder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}

	pid, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return "unknown"
	}

	return strconv.Itoa(pid)
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks and closes the lock file. The file itself is left in place
// so a concurrent Acquire never locks an unlinked inode.
//
// Release is idempotent.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	return errors.Join(unlockErr, closeErr)
}
