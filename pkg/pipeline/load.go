package pipeline

import (
	"os"

	"github.com/nestflow/nestflow/pkg/graph"
)

// LoadGraph reads a graph document from path. A path of "-" reads from
// stdin, which lets CLI invocations pipe graphs between tools.
func LoadGraph(path string) (*graph.Graph, error) {
	if path == "-" {
		return graph.ReadGraph(os.Stdin)
	}
	return graph.ReadGraphFile(path)
}
