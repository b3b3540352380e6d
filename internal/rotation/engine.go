// Package rotation implements the susu collection state machine: membership,
// join requests, the fixed collection order, payment records and round
// progression.
//
// Functions here mutate a *models.Group in memory and never do I/O. Callers are
// responsible for serializing mutations per group and persisting the result.
package rotation

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// DefaultRequestTTL is how long a join request stays valid.
const DefaultRequestTTL = 24 * time.Hour

// Rand is the randomness source used for first-collector selection.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Engine carries the injectable dependencies of the state machine.
// The zero value is usable.
type Engine struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Rand picks the first collector. Defaults to the math/rand/v2 global source.
	Rand Rand

	// RequestTTL bounds the age of a pending join request. Defaults to 24h.
	RequestTTL time.Duration

	// StrictAmount rejects payments whose amount differs from the group's
	// contribution amount.
	StrictAmount bool
}

// NewEngine returns an Engine with default clock, randomness and TTL.
func NewEngine() *Engine {
	return &Engine{
		Now:        time.Now,
		Rand:       globalRand{},
		RequestTTL: DefaultRequestTTL,
	}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Engine) source() Rand {
	if e.Rand == nil {
		return globalRand{}
	}
	return e.Rand
}

func (e *Engine) requestTTL() time.Duration {
	if e.RequestTTL <= 0 {
		return DefaultRequestTTL
	}
	return e.RequestTTL
}

// NewReference returns a fresh payment reference.
func NewReference() string {
	return "susu_" + uuid.NewString()
}
