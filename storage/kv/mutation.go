package kv

import (
	"bytes"
)

// Key identifies a single cell of a table
type Key struct {
	Row       []byte
	Family    []byte
	Qualifier []byte
}

// Compare compares two keys by row, then family, then qualifier
// -1 means a < b
// 1 means a > b
// 0 means a = b
func Compare(a, b Key) int {
	if c := bytes.Compare(a.Row, b.Row); c != 0 {
		return c
	}

	if c := bytes.Compare(a.Family, b.Family); c != 0 {
		return c
	}

	return bytes.Compare(a.Qualifier, b.Qualifier)
}

// Entry is a key and the value stored under it
type Entry struct {
	Key   Key
	Value []byte
}

// ColumnUpdate is a single put or delete within a row
type ColumnUpdate struct {
	Family    []byte
	Qualifier []byte
	Value     []byte
	Delete    bool
}

// Key returns the key this update applies to on row
func (update ColumnUpdate) Key(row []byte) Key {
	return Key{Row: row, Family: update.Family, Qualifier: update.Qualifier}
}

// Mutation is a set of updates to one row. All updates
// in a mutation are applied atomically.
type Mutation struct {
	Row     []byte
	Updates []ColumnUpdate
}

// NewMutation creates an empty mutation for row
func NewMutation(row []byte) *Mutation {
	return &Mutation{Row: row}
}

// Put adds an update that writes value to the column
func (mutation *Mutation) Put(family, qualifier, value []byte) *Mutation {
	if value == nil {
		value = []byte{}
	}

	mutation.Updates = append(mutation.Updates, ColumnUpdate{
		Family:    family,
		Qualifier: qualifier,
		Value:     value,
	})

	return mutation
}

// PutDelete adds an update that deletes the column
func (mutation *Mutation) PutDelete(family, qualifier []byte) *Mutation {
	mutation.Updates = append(mutation.Updates, ColumnUpdate{
		Family:    family,
		Qualifier: qualifier,
		Delete:    true,
	})

	return mutation
}

// Validate returns ErrInvalidMutation if the mutation
// has no row or no updates
func (mutation *Mutation) Validate() error {
	if mutation == nil || len(mutation.Row) == 0 || len(mutation.Updates) == 0 {
		return ErrInvalidMutation
	}

	return nil
}
