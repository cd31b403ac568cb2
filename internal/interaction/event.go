package interaction

import (
	"fmt"

	"flow-canvas/pkg/geometry"
)

// Phase is the stage of a pointer's contact.
type Phase int

const (
	PhaseDown Phase = iota
	PhaseMove
	PhaseUp
	PhaseCancel
)

func (p Phase) String() string {
	switch p {
	case PhaseDown:
		return "down"
	case PhaseMove:
		return "move"
	case PhaseUp:
		return "up"
	case PhaseCancel:
		return "cancel"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ParsePhase converts a phase name ("down", "move", "up", "cancel").
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "down":
		return PhaseDown, nil
	case "move":
		return PhaseMove, nil
	case "up":
		return PhaseUp, nil
	case "cancel":
		return PhaseCancel, nil
	}
	return 0, fmt.Errorf("unknown pointer phase %q", s)
}

// PointerEvent is one sample from a pointer-event source, in screen space.
// The core assumes nothing about the input device behind it.
type PointerEvent struct {
	ID    int
	Phase Phase
	X, Y  float64
}

// Point returns the event position.
func (e PointerEvent) Point() geometry.Point2D {
	return geometry.Point2D{X: e.X, Y: e.Y}
}

// Mode is the kind of gesture in progress.
type Mode int

const (
	Idle Mode = iota
	Panning
	DraggingNode
	Connecting
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingNode:
		return "dragging_node"
	case Connecting:
		return "connecting"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// State is a read-only view of the current gesture, enough for a renderer to
// draw drag highlights and the in-progress connection line.
type State struct {
	Mode Mode

	// DraggingNode
	NodeID     string
	GrabOffset geometry.Point2D

	// Connecting
	StartHandleID string
	Current       geometry.Point2D // world space
	CandidateID   string           // empty when there is no valid candidate
}
