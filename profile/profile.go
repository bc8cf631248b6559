//go:build linux

// Package profile implements named resource-limit presets a caller can
// reference by name instead of repeating the same limits for every
// submission of a given language/policy pair. Profiles are stored in a
// bbolt-backed Store so a long-lived judging host can persist its
// catalogue across restarts.
package profile

import (
	"encoding/json"
	"fmt"

	"github.com/inhies/go-bytesize"
	"go.etcd.io/bbolt"
)

const bucketName = "profiles"

// Limits mirrors codegoat.ResourceLimits field-for-field. profile
// cannot import the root package (the root package imports profile to
// resolve RunRequest.ProfileName), so it defines its own copy and lets
// the root package convert between the two.
type Limits struct {
	Memory       *uint64
	CPUTimeMs    *uint32
	RealTimeMs   *uint32
	StackBytes   *uint32
	ProcessCount *uint16
	OutputBytes  *uint32
}

// Spec is the human-readable, on-disk form of a profile: sizes are
// strings ("256MB", "1.5GB") parsed with go-bytesize.
type Spec struct {
	Memory       string  `json:"memory,omitempty"`
	CPUTimeMs    *uint32 `json:"cpu_time_ms,omitempty"`
	RealTimeMs   *uint32 `json:"real_time_ms,omitempty"`
	StackBytes   string  `json:"stack_bytes,omitempty"`
	ProcessCount *uint16 `json:"process_count,omitempty"`
	OutputBytes  string  `json:"output_bytes,omitempty"`
}

// Resolve parses the human-readable sizes in s into a Limits, leaving a
// field nil when its Spec string is empty.
func (s Spec) Resolve() (Limits, error) {
	var out Limits

	if s.Memory != "" {
		v, err := bytesize.Parse(s.Memory)
		if err != nil {
			return out, fmt.Errorf("bad memory %q: %w", s.Memory, err)
		}
		u := uint64(v)
		out.Memory = &u
	}
	if s.StackBytes != "" {
		v, err := bytesize.Parse(s.StackBytes)
		if err != nil {
			return out, fmt.Errorf("bad stack_bytes %q: %w", s.StackBytes, err)
		}
		n := clampUint32(uint64(v))
		out.StackBytes = &n
	}
	if s.OutputBytes != "" {
		v, err := bytesize.Parse(s.OutputBytes)
		if err != nil {
			return out, fmt.Errorf("bad output_bytes %q: %w", s.OutputBytes, err)
		}
		n := clampUint32(uint64(v))
		out.OutputBytes = &n
	}
	out.CPUTimeMs = s.CPUTimeMs
	out.RealTimeMs = s.RealTimeMs
	out.ProcessCount = s.ProcessCount

	return out, nil
}

func clampUint32(v uint64) uint32 {
	const max = 1<<32 - 1
	if v > max {
		return max
	}
	return uint32(v)
}

// Store is an embedded, file-backed catalogue of named profiles.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a bbolt database at path and
// ensures the profile bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open profile store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create profile bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying bbolt database.
func (s *Store) Close() error { return s.db.Close() }

// Put registers or replaces a named profile.
func (s *Store) Put(name string, spec Spec) error {
	b, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", name, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(name), b)
	})
}

// Get looks up a named profile and resolves it to Limits. ok is false
// when no profile is registered under name.
func (s *Store) Get(name string) (limits Limits, ok bool, err error) {
	var raw []byte
	err = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(name))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return Limits{}, false, err
	}

	var spec Spec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return Limits{}, false, fmt.Errorf("unmarshal profile %s: %w", name, err)
	}
	limits, err = spec.Resolve()
	if err != nil {
		return Limits{}, false, err
	}
	return limits, true, nil
}
