package agent

import (
	"slices"

	"github.com/spetersoncode/cellmate/tool"
)

// approvalPolicy decides which calls need a human decision. It is built
// from settings once per generation.
type approvalPolicy struct {
	commands []string
}

func newApprovalPolicy(s Settings) approvalPolicy {
	return approvalPolicy{commands: s.CommandsRequiringApproval()}
}

func (p approvalPolicy) requiresApproval(name string, entry tool.Entry, found bool) bool {
	if found && entry.RequiresApproval {
		return true
	}
	return slices.Contains(p.commands, name)
}
