// Package engine defines the call-transport engine boundary: the uniform
// capability interface every engine exposes, the immutable per-call
// configuration, the mutable call-lifetime options, and the registry of
// locally available engine candidates.
package engine

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/dialstack/callcore/internal/signaling"
)

var (
	ErrConstruction   = errors.New("engine: construction failed")
	ErrInitialization = errors.New("engine: initialization failed")
)

// ConnectionState is the coarse engine connection lifecycle reported to
// the state observer.
type ConnectionState int

const (
	StateWaitInit ConnectionState = iota
	StateWaitInitAck
	StateEstablished
	StateFailed
	StateReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateWaitInit:
		return "wait_init"
	case StateWaitInitAck:
		return "wait_init_ack"
	case StateEstablished:
		return "established"
	case StateFailed:
		return "failed"
	case StateReconnecting:
		return "reconnecting"
	}
	return "unknown"
}

// StateObserver receives engine connection state transitions.
type StateObserver interface {
	OnConnectionStateChanged(state ConnectionState)
}

// StateObserverFunc adapts a function into a StateObserver.
type StateObserverFunc func(ConnectionState)

func (f StateObserverFunc) OnConnectionStateChanged(state ConnectionState) {
	f(state)
}

// Instance is a constructed call-transport engine. These four operations
// are the only ones the negotiator calls; everything else an engine does
// is its own business.
type Instance interface {
	InitializeAndConnect() error
	PerformDestroy()
	LibraryName() string
	LibraryVersion() string
}

// Context carries the factory boundary inputs for one construction
// attempt. Signaling may be nil when no feed is attached.
type Context struct {
	Signaling *signaling.Client
	Config    *Configuration
	Options   *Options
	Observer  StateObserver
	Version   string
	Log       zerolog.Logger
}

// Factory builds a running engine instance or fails.
type Factory func(ctx Context) (Instance, error)

// Candidate is a locally buildable engine implementation.
type Candidate struct {
	Name    string
	Version string
	Legacy  bool
	New     Factory
}
