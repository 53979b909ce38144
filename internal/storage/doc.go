// Package storage persists task snapshots in key-value backends.
//
// A Snapshot adapts a KV backend and a Codec to the todo.Persister
// interface. The whole task list is stored as one value under one key
// (by default "tasks").
//
// # Backends
//
//   - Memory: in-process map, nothing survives the process
//   - File: one file per key in a directory, atomic replace, guarded by an
//     advisory lock file so concurrent writers never interleave
//   - SQL: a kv_store table, opened on MySQL with OpenMySQL
//
// # Codecs
//
//   - json: a bare array, 2-space indentation, trailing newline
//   - yaml: a bare sequence
//   - toml: an array of [[tasks]] tables
//
// JSON snapshots are checked against todo.SnapshotSchema before decoding.
// Every decoded snapshot must pass todo.ValidateTasks. Anything that fails is
// reported as a todo.CorruptSnapshotError.
package storage
