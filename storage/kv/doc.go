// Package kv defines the boundary between the graph encoding layer and
// the sorted key-value store that persists it.
//
// A store contains zero or more named tables. Each table is a sorted map
// from (row, column family, column qualifier) to a value:
//
//  - Store
//    - Table "graph"
//      - (v1, MVERTEX, <vertex v1>): ""
//      - (v1, EOUT, e7): v2
//      - (v2, MVERTEX, <vertex v2>): ""
//    - Table "scratch"
//
// Entries are ordered by row, then family, then qualifier, comparing bytes.
// Writes go through a BatchWriter which buffers mutations until they are
// flushed. A Mutation touches exactly one row and is applied atomically;
// there is no atomicity across rows or across flushes. Reads go through a
// Scanner over a row range, optionally restricted to some columns.
//
// Stores are created by plugins. The plugins package registers the
// in-memory, bbolt and pebble implementations.
package kv
