//go:build !windows

package bufferpool

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileLock holds an advisory exclusive flock on the pool's backing file,
// released by unlock when the pool is closed.
type fileLock struct {
	fd int
}

func lockFile(f *os.File) (*fileLock, error) {
	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, err
	}
	return &fileLock{fd: fd}, nil
}

func (l *fileLock) unlock() {
	unix.Flock(l.fd, unix.LOCK_UN)
}
