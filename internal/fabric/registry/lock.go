package registry

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
)

// acquireLock implements the advisory cross-process mutex described in §4.A:
// exclusive-create the sentinel, steal it if it's older than the stale
// timeout, back off and retry on contention, give up after the retry
// budget. It assumes nothing beyond create-exclusive, stat, rename, and
// unlink, so it works uniformly on any POSIX-like target.
func acquireLock(lockPath string) (release func(), err error) {
	for attempt := 0; attempt < defaults.LockRetryBudget; attempt++ {
		f, createErr := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if createErr == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			_ = f.Close()
			return func() { releaseLock(lockPath) }, nil
		}
		if !errors.Is(createErr, os.ErrExist) {
			return nil, fmt.Errorf("create lock sentinel %q: %w", lockPath, createErr)
		}

		if stealStaleLock(lockPath) {
			continue
		}

		time.Sleep(defaults.LockRetryDelay)
	}
	return nil, ErrLockTimeout
}

// stealStaleLock deletes the sentinel if its mtime is older than the lock
// stale timeout, and reports whether it did so. A concurrent deleter racing
// here is fine: unlink of an already-gone file is tolerated, and the loop
// in acquireLock simply retries the create.
func stealStaleLock(lockPath string) bool {
	info, statErr := os.Stat(lockPath)
	if statErr != nil {
		// Already gone (raced with another acquirer/releaser) — let the
		// caller's next create-exclusive attempt pick it up.
		return errors.Is(statErr, os.ErrNotExist)
	}
	if time.Since(info.ModTime()) <= defaults.LockStaleTimeout {
		return false
	}
	_ = os.Remove(lockPath)
	return true
}

// releaseLock deletes the sentinel, tolerating "already gone" — another
// process may have seized an apparently-stale lock out from under us.
func releaseLock(lockPath string) {
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		// Best-effort: a failed release only delays the next acquirer
		// until the stale timeout elapses, it does not corrupt state.
		_ = err
	}
}
