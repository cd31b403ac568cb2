package editor

import (
	"fmt"

	"flow-canvas/internal/graph"
	"flow-canvas/pkg/geometry"
)

// Asset references used by the sample scene.
const (
	SampleIcon       = "icon.png"
	SampleBackground = "node_background.png"
)

// LoadSample adds four chained nodes (Schedule -> HTTP -> Code -> Sheets)
// joined by animated edges, and returns the nodes in chain order.
func LoadSample(e *Editor) ([]*graph.Node, error) {
	labels := []string{"Schedule", "HTTP", "Code", "Sheets"}

	nodes := make([]*graph.Node, len(labels))
	for i, label := range labels {
		nodes[i] = e.AddNode(graph.NodeSpec{
			Position:   geometry.NewPoint2D(150+200*float64(i), 200),
			Label:      label,
			Icon:       SampleIcon,
			Background: SampleBackground,
			Inputs:     1,
			Outputs:    1,
		})
	}

	for i := 0; i+1 < len(nodes); i++ {
		src, dst := nodes[i].Outputs[0], nodes[i+1].Inputs[0]
		if _, err := e.model.AddEdge(src.ID, dst.ID, true); err != nil {
			return nodes, fmt.Errorf("connect %s -> %s: %w", nodes[i].Label, nodes[i+1].Label, err)
		}
	}
	e.updateGauges()
	e.invalidate()
	return nodes, nil
}
