//go:build linux

package codegoat

import (
	"github.com/aintbe/codegoat/logger"
	"github.com/aintbe/codegoat/profile"
)

// LoggerError is re-exported so callers never need to import the
// logger package directly.
type LoggerError = logger.LoggerError

// ConfigureLogger points the process-wide structured logger at path,
// or stdout when path is empty. Idempotent.
func ConfigureLogger(path string) error {
	return logger.Configure(path, logger.LogText)
}

// ProfileStore is re-exported so callers can register judging profiles
// without importing the profile package directly.
type ProfileStore = profile.Store

// ProfileSpec is the human-readable form of a judging profile; see
// profile.Spec.
type ProfileSpec = profile.Spec

// OpenProfileStore opens (creating if necessary) a bbolt-backed
// catalogue of named judging profiles at path.
func OpenProfileStore(path string) (*ProfileStore, error) {
	return profile.Open(path)
}

func fromProfileLimits(l profile.Limits) ResourceLimits {
	var memory *U63
	if l.Memory != nil {
		u := NewU63(*l.Memory)
		memory = &u
	}
	return ResourceLimits{
		Memory:       memory,
		CPUTimeMs:    l.CPUTimeMs,
		RealTimeMs:   l.RealTimeMs,
		StackBytes:   l.StackBytes,
		ProcessCount: l.ProcessCount,
		OutputBytes:  l.OutputBytes,
	}
}

// resolveLimits layers request.Limits over the named profile in store
// (if both ProfileName and store are set): fields explicitly set on
// request.Limits always win.
func resolveLimits(request RunRequest, store *ProfileStore) (ResourceLimits, error) {
	if request.ProfileName == "" || store == nil {
		return request.Limits, nil
	}
	profileLimits, ok, err := store.Get(request.ProfileName)
	if err != nil {
		return ResourceLimits{}, err
	}
	if !ok {
		return request.Limits, nil
	}
	return request.Limits.merge(fromProfileLimits(profileLimits)), nil
}
