// Package logging configures the process-wide slog logger for a shardex node.
//
// Without --debug the node logs JSON to stderr at the configured level.
// With --debug it also writes to ~/.shardex/logs/shardex.log, rotated by size.
package logging
