// Package main hosts the sublingo CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into project operations:
// translating a subtitle file, resuming an interrupted or partly failed
// project, inspecting and editing lines, exporting the result, listing run
// history, and serving the status API. Configuration resolution and logger
// setup live in commandContext so subcommands only deal with their own flags.
//
// Dispatch, validation and persistence live in internal packages; commands
// here stay thin.
package main
