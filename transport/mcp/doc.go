// Package mcp exposes the falling blocks server to MCP agents.
//
// Client registers a set of tools on a mark3labs/mcp-go server and answers
// each one by calling the REST API, so an agent sees exactly what HTTP
// clients see:
//
//	create_session, list_sessions, get_session
//	field_state, command, bulk_command, reset_field
//	command_history, describe_cell
//	list_configs, game_instructions
//
// Results are plain text: a header with the active piece and anchor, the
// board with a column ruler, then the status message. command and
// bulk_command take an "intent" argument that is not sent to the server;
// it makes agents state what they expect before acting.
//
// The server is served over stdio (server.ServeStdio) or over HTTP by
// posting JSON-RPC bodies to /mcp, which main wires to HandleMessage.
package mcp
