// Package graph defines the on-disk vocabulary used to store a property
// graph in a sorted key-value store: the record kinds whose tags prefix
// encoded column qualifiers, the marker tokens used as column families,
// and the error kinds every layer of the encoding reports.
//
// Everything in this package is part of the storage format. Changing a
// RecordType value or a marker token makes existing tables unreadable.
package graph
