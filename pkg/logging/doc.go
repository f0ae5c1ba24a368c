// Package logging provides leveled, subsystem-tagged logging for kgrouter,
// built on Go's standard slog package.
//
// All log entries carry a subsystem identifier so output can be filtered by
// component (Router, Connection, Config, Descriptions, ...):
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("Router", "Active domain set to %s", name)
//	logging.Error("Connection", err, "Handshake with %s domain failed", name)
//
// The logger writes to the writer given to Init. When the router runs with
// the stdio transport the writer must be stderr, because stdout belongs to
// the MCP JSON-RPC stream.
package logging
