// Package history persists finished pipeline runs in a local SQLite journal.
//
// The journal is write-only during a run: it records what happened for the
// `quark history` command and is never consulted to resume or skip work.
package history
