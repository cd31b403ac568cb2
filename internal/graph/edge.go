package graph

import (
	"errors"
	"fmt"
)

// Edge is a directed connection from an output handle to an input handle.
// Edges are immutable once created.
type Edge struct {
	ID             string
	SourceNodeID   string
	SourceHandleID string
	TargetNodeID   string
	TargetHandleID string
	Animated       bool
}

// Touches reports whether the edge references the given node.
func (e *Edge) Touches(nodeID string) bool {
	return e.SourceNodeID == nodeID || e.TargetNodeID == nodeID
}

// ErrConnectionRejected is returned (wrapped) whenever an edge would break a
// structural rule. It is never fatal.
var ErrConnectionRejected = errors.New("connection rejected")

// RejectReason names the rule a rejected connection broke.
type RejectReason int

const (
	RejectWrongDirection RejectReason = iota
	RejectSelfLoop
	RejectDuplicate
	RejectUnknownHandle
)

func (r RejectReason) String() string {
	switch r {
	case RejectWrongDirection:
		return "wrong direction"
	case RejectSelfLoop:
		return "self loop"
	case RejectDuplicate:
		return "duplicate"
	case RejectUnknownHandle:
		return "unknown handle"
	default:
		return "unknown"
	}
}

// ConnectionRejectedError carries the reason an edge was not created.
type ConnectionRejectedError struct {
	Reason   RejectReason
	SourceID string
	TargetID string
}

func (e *ConnectionRejectedError) Error() string {
	return fmt.Sprintf("%s %s -> %s: %s", ErrConnectionRejected, e.SourceID, e.TargetID, e.Reason)
}

func (e *ConnectionRejectedError) Unwrap() error {
	return ErrConnectionRejected
}

// IsDuplicate reports whether err is a rejection of an already existing edge.
func IsDuplicate(err error) bool {
	var rej *ConnectionRejectedError
	return errors.As(err, &rej) && rej.Reason == RejectDuplicate
}
