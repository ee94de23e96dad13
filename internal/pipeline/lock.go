package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LockFile marks an output directory as in use by a run.
const LockFile = ".jobsweep.lock"

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

// acquireLock creates the lock file exclusively and returns its release
// function. A lock left behind by a crashed process must be removed by hand.
func acquireLock(dir string) (func(), error) {
	path := filepath.Join(dir, LockFile)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return nil, fmt.Errorf("%w (remove %s if no run is active)", ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("create run lock: %w", err)
	}
	_, err = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write run lock: %w", err)
	}
	return func() { os.Remove(path) }, nil
}
