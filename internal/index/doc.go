// Package index maintains a SQLite table of the source images under a
// directory tree and serves them in display order, most recently modified
// first. Indexer rescans the tree on an interval.
package index
