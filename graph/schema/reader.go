package schema

import (
	"github.com/cockroachdb/errors"
	"github.com/jrife/graphkv/graph"
	"github.com/jrife/graphkv/graph/encoding"
	"github.com/jrife/graphkv/storage/kv"
)

// Adjacency is an edge incident to a vertex and the vertex at its other end
type Adjacency struct {
	Edge   string
	Vertex string
}

// Vertex is a vertex row decoded
type Vertex struct {
	ID         string
	Out        []Adjacency
	In         []Adjacency
	Properties map[string]interface{}
}

// Edge is an edge row decoded
type Edge struct {
	ID         string
	Label      string
	Out        string
	In         string
	Properties map[string]interface{}
}

// ReadVertex decodes the entries of a vertex row. It returns nil if
// the row has no vertex marker. Columns of other roles are ignored.
func ReadVertex(entries []kv.Entry) (*Vertex, error) {
	var vertex *Vertex
	properties := map[string]interface{}{}
	var out, in []Adjacency

	for _, entry := range entries {
		switch graph.Marker(entry.Key.Family) {
		case graph.VertexType:
			id, err := typed(entry, graph.Vertex)

			if err != nil {
				return nil, err
			}

			vertex = &Vertex{ID: id}
		case graph.OutEdge:
			out = append(out, Adjacency{Edge: string(entry.Key.Qualifier), Vertex: string(entry.Value)})
		case graph.InEdge:
			in = append(in, Adjacency{Edge: string(entry.Key.Qualifier), Vertex: string(entry.Value)})
		case graph.Property:
			if err := readProperty(entry, properties); err != nil {
				return nil, err
			}
		}
	}

	if vertex == nil {
		return nil, nil
	}

	vertex.Out = out
	vertex.In = in
	vertex.Properties = properties

	return vertex, nil
}

// ReadEdge decodes the entries of an edge row. It returns nil if
// the row has no edge marker. Columns of other roles are ignored.
func ReadEdge(entries []kv.Entry) (*Edge, error) {
	var edge *Edge
	properties := map[string]interface{}{}
	var out, in string

	for _, entry := range entries {
		switch graph.Marker(entry.Key.Family) {
		case graph.EdgeType:
			label, err := typed(entry, graph.Edge)

			if err != nil {
				return nil, err
			}

			edge = &Edge{ID: string(entry.Key.Row), Label: label}
		case graph.OutVertex:
			out = string(entry.Key.Qualifier)
		case graph.InVertex:
			in = string(entry.Key.Qualifier)
		case graph.Property:
			if err := readProperty(entry, properties); err != nil {
				return nil, err
			}
		}
	}

	if edge == nil {
		return nil, nil
	}

	edge.Out = out
	edge.In = in
	edge.Properties = properties

	return edge, nil
}

func typed(entry kv.Entry, expected graph.RecordType) (string, error) {
	recordType, obj, err := encoding.TextToTypedObject(entry.Key.Qualifier)

	if err != nil {
		return "", errors.Wrapf(err, "row %q", entry.Key.Row)
	}

	s, ok := obj.(string)

	if recordType != expected || !ok {
		return "", graph.Mark(errors.Newf("row %q: expected %s string, got %s %T", entry.Key.Row, expected, recordType, obj), graph.KindDecode)
	}

	return s, nil
}

func readProperty(entry kv.Entry, properties map[string]interface{}) error {
	value, err := encoding.ValueToObject(entry.Value)

	if err != nil {
		return errors.Wrapf(err, "row %q property %q", entry.Key.Row, entry.Key.Qualifier)
	}

	properties[encoding.TextToString(entry.Key.Qualifier)] = value

	return nil
}
