// Package main hosts the audioservice CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the HTTP API server, scaffolds and
// validates configuration, and inspects the asset catalog. It centralizes
// configuration resolution so subcommands can focus on user experience
// instead of wiring.
package main
