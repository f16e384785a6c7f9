// Package cli parses command-line arguments and an optional YAML config file
// into the application's configuration, and maps usage problems to process
// exit codes.
package cli
