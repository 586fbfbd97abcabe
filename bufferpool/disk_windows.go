//go:build windows

package bufferpool

import (
	"os"

	"golang.org/x/sys/windows"
)

// fileLock holds an advisory exclusive lock on the pool's backing file
// via LockFileEx, released by unlock when the pool is closed.
type fileLock struct {
	handle windows.Handle
}

func lockFile(f *os.File) (*fileLock, error) {
	h := windows.Handle(f.Fd())
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, ol); err != nil {
		return nil, err
	}
	return &fileLock{handle: h}, nil
}

func (l *fileLock) unlock() {
	ol := new(windows.Overlapped)
	windows.UnlockFileEx(l.handle, 0, 1, 0, ol)
}
