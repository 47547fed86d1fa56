package graph

import (
	"fmt"
)

// RecordType tags an encoded column so that one scan can tell
// the kinds of records sharing a row apart. The tag is the first
// byte of every typed column.
//
// These values are persisted. Never renumber or reuse them.
type RecordType uint8

const (
	// Meta tags graph metadata records
	Meta RecordType = 0
	// Vertex tags vertex records
	Vertex RecordType = 1
	// Edge tags edge records
	Edge RecordType = 2
	// Prop tags property records
	Prop RecordType = 3
)

// RecordTypes lists every record type in tag order
func RecordTypes() []RecordType {
	return []RecordType{Meta, Vertex, Edge, Prop}
}

// Valid reports whether t is one of the defined record types
func (t RecordType) Valid() bool {
	return t <= Prop
}

// String implements fmt.Stringer
func (t RecordType) String() string {
	switch t {
	case Meta:
		return "META"
	case Vertex:
		return "VERTEX"
	case Edge:
		return "EDGE"
	case Prop:
		return "PROP"
	default:
		return fmt.Sprintf("RecordType(%d)", uint8(t))
	}
}
