//go:build linux

package runner

import (
	"time"

	"github.com/goombaio/namegenerator"
)

// GenerateHostname produces a random two-word hostname for the
// sandbox's UTS namespace. Callers that want a deterministic or
// caller-supplied hostname should set Request.Hostname directly
// instead of calling this.
func GenerateHostname() string {
	generator := namegenerator.NewNameGenerator(time.Now().UTC().UnixNano())
	return generator.Generate()
}
