package graph

// Marker is a reserved token used as a column family. Each role
// sharing a row gets its own family so that scanning a row for one
// family returns only the records playing that role.
type Marker string

// Vertex related markers
const (
	// VertexType marks the column that says a row is a vertex
	VertexType Marker = "MVERTEX"
	// OutEdge marks a vertex's outgoing adjacency
	OutEdge Marker = "EOUT"
	// InEdge marks a vertex's incoming adjacency
	InEdge Marker = "EIN"
)

// Edge related markers
const (
	// EdgeType marks the column that says a row is an edge
	EdgeType Marker = "MEDGE"
	// OutVertex marks the vertex an edge leaves
	OutVertex Marker = "VOUT"
	// InVertex marks the vertex an edge enters
	InVertex Marker = "VIN"
)

const (
	// Property marks an element's properties
	Property Marker = "PROP"
	// Empty fills a column part that is required but carries nothing
	Empty Marker = ""
)

// Bytes returns a fresh copy of the marker's bytes. The
// result is never nil, even for Empty.
func (m Marker) Bytes() []byte {
	return append([]byte{}, m...)
}

// Null returns the representation of an absent column part or value.
// It differs from Empty, which is present with zero length.
func Null() []byte {
	return nil
}

// EmptyValue returns a present, zero-length value
func EmptyValue() []byte {
	return []byte{}
}

// Markers returns every marker keyed by name
func Markers() map[string]Marker {
	return map[string]Marker{
		"VertexType": VertexType,
		"OutEdge":    OutEdge,
		"InEdge":     InEdge,
		"EdgeType":   EdgeType,
		"OutVertex":  OutVertex,
		"InVertex":   InVertex,
		"Property":   Property,
		"Empty":      Empty,
	}
}
