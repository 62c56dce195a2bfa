// Package logging builds the structured loggers used by the command-line
// tools and the MCP server.
//
// Records go to stderr by default because stdout carries the MCP protocol.
package logging
