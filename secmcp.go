// Package secmcp exposes security scanning tools over the Model Context Protocol.
package secmcp

// Version is the secmcp release version.
const Version = "0.3.0"
