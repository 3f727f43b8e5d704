// Package registry implements the Registry Store (§4.A): serializable
// read-modify-write access, for any number of cooperating local processes,
// to the shared instance list on disk.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/DNGriffin/clankercontext/internal/fabric/clock"
	"github.com/DNGriffin/clankercontext/pkg/sdk/defaults"
	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

// Store provides locking read-modify-write access to one registry file.
type Store struct {
	dir            string
	registryPath   string
	lockPath       string
	clock          clock.Clock
	staleThreshold time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for stale filtering. Tests use this
// to advance time deterministically instead of sleeping.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithStaleThreshold overrides the default stale threshold. Production
// code should not need this; it exists so tests can shrink the window.
func WithStaleThreshold(d time.Duration) Option {
	return func(s *Store) { s.staleThreshold = d }
}

// New creates a Store rooted at dir (defaults.RegistryDir() if empty),
// creating the directory if it does not exist.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		dir = defaults.RegistryDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory %q: %w", dir, err)
	}
	s := &Store{
		dir:            dir,
		registryPath:   defaults.RegistryFilePath(dir),
		lockPath:       defaults.LockFilePath(dir),
		clock:          clock.Real{},
		staleThreshold: defaults.StaleThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type fileContents struct {
	Instances []types.InstanceRecord `json:"instances"`
}

// Snapshot is a non-locking read returning the registry's current contents
// with stale records filtered out. It may observe slightly stale data (a
// concurrent writer mid-rename never produces a torn read: readers see
// either the old or the new complete file), and it never returns torn or
// partial records.
func (s *Store) Snapshot() ([]types.InstanceRecord, error) {
	records, err := s.readRecords()
	if err != nil {
		return nil, err
	}
	return s.filterStale(records), nil
}

// Modify acquires the registry mutex, reads the current records (with
// stale entries filtered), applies f, atomically replaces the file, and
// releases the mutex. f must be pure: it receives the filtered snapshot
// and returns the records that should be persisted.
func (s *Store) Modify(f func([]types.InstanceRecord) []types.InstanceRecord) error {
	release, err := acquireLock(s.lockPath)
	if err != nil {
		return err
	}
	defer release()

	records, err := s.readRecords()
	if err != nil {
		return err
	}
	records = s.filterStale(records)
	records = f(records)
	return s.writeRecords(records)
}

// readRecords loads the registry file. A missing file is an empty
// registry. Corrupt JSON self-heals to an empty registry rather than
// propagating an error — the next Modify rewrites a valid file.
func (s *Store) readRecords() ([]types.InstanceRecord, error) {
	data, err := os.ReadFile(s.registryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read registry file %q: %w", s.registryPath, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var fc fileContents
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, nil
	}
	return fc.Instances, nil
}

// writeRecords atomically replaces the registry file: write to a
// pid-suffixed temp file, then rename over the target, so readers always
// observe a complete file. The temp file is best-effort removed on failure.
func (s *Store) writeRecords(records []types.InstanceRecord) error {
	if records == nil {
		records = []types.InstanceRecord{}
	}
	data, err := json.MarshalIndent(fileContents{Instances: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	tmp := s.registryPath + "." + strconv.Itoa(os.Getpid()) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp registry file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.registryPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace registry file %q: %w", s.registryPath, err)
	}
	return nil
}

// filterStale drops any record whose lastHeartbeat is older than the
// stale threshold (§3 invariant).
func (s *Store) filterStale(records []types.InstanceRecord) []types.InstanceRecord {
	if len(records) == 0 {
		return records
	}
	now := s.clock.Now().UnixMilli()
	out := make([]types.InstanceRecord, 0, len(records))
	for _, r := range records {
		if now-r.LastHeartbeat < s.staleThreshold.Milliseconds() {
			out = append(out, r)
		}
	}
	return out
}

// Dir returns the directory this Store operates on.
func (s *Store) Dir() string { return s.dir }

// Path returns the registry file's path, for diagnostics.
func (s *Store) Path() string { return s.registryPath }
