// Package app wires the loader, the operation catalog and the executor into
// a single run: it loads graph files, resolves the requested targets, runs
// them locally or on a remote fleet, and prints one line per target.
// It is decoupled from any specific entrypoint like a CLI or server.
package app
