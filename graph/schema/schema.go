// Package schema places vertices, edges and properties onto table rows.
//
// A vertex owns the row named by its identifier:
//
//	MVERTEX | typed(VERTEX, id) | empty
//	EOUT    | edge id           | in vertex id
//	EIN     | edge id           | out vertex id
//	PROP    | key               | encoded value
//
// An edge owns the row named by its identifier:
//
//	MEDGE | typed(EDGE, label) | empty
//	VOUT  | out vertex id      | empty
//	VIN   | in vertex id       | empty
//	PROP  | key                | encoded value
//
// Adding an edge also writes the EOUT and EIN columns on the rows of
// its two vertices. Each mutation touches a single row, so a reader can
// observe an edge before the adjacency columns that point at it.
package schema

import (
	"github.com/cockroachdb/errors"
	"github.com/jrife/graphkv/graph"
	"github.com/jrife/graphkv/graph/encoding"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/storage/kv/keys"
)

var (
	// ErrEmptyID is returned when an element identifier is empty
	ErrEmptyID = errors.New("identifier is empty")
	// ErrEmptyKey is returned when a property key is empty
	ErrEmptyKey = errors.New("property key is empty")
)

// AddVertex returns the mutation that creates vertex id
func AddVertex(id string) (*kv.Mutation, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	cq, err := encoding.TypedObjectToText(graph.Vertex, id)

	if err != nil {
		return nil, errors.Wrapf(err, "could not encode vertex %q", id)
	}

	return kv.NewMutation(encoding.StringToText(id)).Put(graph.VertexType.Bytes(), cq, graph.EmptyValue()), nil
}

// AddEdge returns the mutations that create edge id with the given label
// from vertex out to vertex in: one for the edge row and one for each
// vertex row.
func AddEdge(id, label, out, in string) ([]*kv.Mutation, error) {
	if id == "" || out == "" || in == "" {
		return nil, ErrEmptyID
	}

	cq, err := encoding.TypedObjectToText(graph.Edge, label)

	if err != nil {
		return nil, errors.Wrapf(err, "could not encode edge %q", id)
	}

	edge := kv.NewMutation(encoding.StringToText(id)).
		Put(graph.EdgeType.Bytes(), cq, graph.EmptyValue()).
		Put(graph.OutVertex.Bytes(), encoding.StringToText(out), graph.EmptyValue()).
		Put(graph.InVertex.Bytes(), encoding.StringToText(in), graph.EmptyValue())

	outRow := kv.NewMutation(encoding.StringToText(out)).
		Put(graph.OutEdge.Bytes(), encoding.StringToText(id), encoding.StringToValue(in))

	inRow := kv.NewMutation(encoding.StringToText(in)).
		Put(graph.InEdge.Bytes(), encoding.StringToText(id), encoding.StringToValue(out))

	return []*kv.Mutation{edge, outRow, inRow}, nil
}

// RemoveEdge returns the mutations that delete edge id and the
// adjacency columns on its vertices. Properties of the edge are not
// touched; delete them by scanning the edge row.
func RemoveEdge(edge *Edge) ([]*kv.Mutation, error) {
	if edge == nil || edge.ID == "" || edge.Out == "" || edge.In == "" {
		return nil, ErrEmptyID
	}

	cq, err := encoding.TypedObjectToText(graph.Edge, edge.Label)

	if err != nil {
		return nil, errors.Wrapf(err, "could not encode edge %q", edge.ID)
	}

	row := kv.NewMutation(encoding.StringToText(edge.ID)).
		PutDelete(graph.EdgeType.Bytes(), cq).
		PutDelete(graph.OutVertex.Bytes(), encoding.StringToText(edge.Out)).
		PutDelete(graph.InVertex.Bytes(), encoding.StringToText(edge.In))

	outRow := kv.NewMutation(encoding.StringToText(edge.Out)).
		PutDelete(graph.OutEdge.Bytes(), encoding.StringToText(edge.ID))

	inRow := kv.NewMutation(encoding.StringToText(edge.In)).
		PutDelete(graph.InEdge.Bytes(), encoding.StringToText(edge.ID))

	return []*kv.Mutation{row, outRow, inRow}, nil
}

// SetProperty returns the mutation that sets property key of element id
func SetProperty(id, key string, value interface{}) (*kv.Mutation, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	if key == "" {
		return nil, ErrEmptyKey
	}

	v, err := encoding.ObjectToValue(value)

	if err != nil {
		return nil, errors.Wrapf(err, "could not encode property %q", key)
	}

	return kv.NewMutation(encoding.StringToText(id)).Put(graph.Property.Bytes(), encoding.StringToText(key), v), nil
}

// RemoveProperty returns the mutation that deletes property key of element id
func RemoveProperty(id, key string) (*kv.Mutation, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	if key == "" {
		return nil, ErrEmptyKey
	}

	return kv.NewMutation(encoding.StringToText(id)).PutDelete(graph.Property.Bytes(), encoding.StringToText(key)), nil
}

// Row returns scan options selecting the columns of element
// id in the given families, or all its columns if none are given
func Row(id string, families ...graph.Marker) kv.ScanOptions {
	options := kv.ScanOptions{Rows: keys.All().Eq(encoding.StringToText(id))}

	for _, family := range families {
		options.Columns = append(options.Columns, kv.Column{Family: family.Bytes()})
	}

	return options
}
