// Package store persists JSON documents in SQLite and signals changes to
// watchers.
//
// Documents live in named collections, mirroring the path layout of a hosted
// document database so that exported data moves between deployments without
// translation. created_at is assigned by the store on first insert and is the
// only ordering key callers should rely on. Change signals coalesce, and
// writes from other processes are noticed by polling PRAGMA data_version.
package store
