package editor

import "flow-canvas/internal/graph"

// Notifier receives connection events from an editor. Calls happen on the
// goroutine that fed the pointer event, before HandlePointer returns.
type Notifier interface {
	// OnEdgeConnected is called after a connection gesture created e.
	OnEdgeConnected(e *graph.Edge)
	// OnConnectionAttempted is called once per finished connection gesture.
	// target is nil when the gesture ended away from any valid handle or
	// was cancelled.
	OnConnectionAttempted(start, target *graph.Handle)
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	EdgeConnected       func(e *graph.Edge)
	ConnectionAttempted func(start, target *graph.Handle)
}

func (f NotifierFuncs) OnEdgeConnected(e *graph.Edge) {
	if f.EdgeConnected != nil {
		f.EdgeConnected(e)
	}
}

func (f NotifierFuncs) OnConnectionAttempted(start, target *graph.Handle) {
	if f.ConnectionAttempted != nil {
		f.ConnectionAttempted(start, target)
	}
}
