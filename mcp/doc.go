// Package mcp connects the tool registry to the Model Context Protocol in
// both directions.
//
// [RemoteRegistry] talks to an MCP server, usually the document editor's
// workspace bridge, and registers its tools into a [tool.Registry] so the
// agent can call them like any local tool:
//
//	remote, err := mcp.NewRemoteRegistry(ctx, "notebook-bridge", nil)
//	if err != nil {
//	    return err
//	}
//	defer remote.Close()
//	names, err := remote.RegisterInto(registry, tool.WithApproval())
//
// [NewServer] does the reverse and exposes a registry to MCP clients.
package mcp
