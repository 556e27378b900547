// Package tool holds the workspace tool registry an agent session draws on.
//
// A Registry maps a tool name to its definition and handler, plus a flag
// saying whether calls must be approved by the user before they run.
// Registrations and removals are announced on a change signal so hosts can
// refresh tool pickers.
//
// # Basic Usage
//
// Define tool arguments as a struct, then bind a typed handler:
//
//	type RunCellArgs struct {
//	    Index int    `json:"index" jsonschema:"description=Cell index to execute"`
//	    Code  string `json:"code,omitempty" jsonschema:"description=Replacement source"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("run_cell", "Execute a notebook cell", runCell).RequireApproval(),
//	)
//
// Parameter schemas are generated with github.com/invopop/jsonschema. Fields
// without omitempty are required.
package tool
