// Package store persists per-process health snapshots in a shared directory.
//
// Every process owns one file per checker name, named
// "<pid>-<name>.json", and overwrites it wholesale on each write. Writes go
// to a dot-prefixed temporary file in the same directory which is then
// renamed over the target, so readers never observe a partially written
// snapshot. List reads only .json files and skips dot files and subdirectories.
//
// There is no locking and nothing is ever deleted: a process that dies
// leaves its last snapshot behind, and staleness is judged by the reader.
//
// # Usage
//
//	dir, err := store.Open(os.Getenv("HEALTH_MULTIPROC_DIR"))
//	if err != nil {
//	    // persistence disabled
//	}
//	_ = dir.Write(os.Getpid(), "worker", data)
//
//	entries, err := dir.List()
package store
