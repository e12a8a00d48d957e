// Package mcp serves the context_query tool over the Model Context Protocol.
//
// The server uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and calls the recall pipeline directly. It runs on stdio for desktop
// assistants and mounts as a streamable HTTP handler on the daemon's HTTP
// server. Image parts of a response become MCP image content and the answer
// becomes MCP text content, in response order.
package mcp
