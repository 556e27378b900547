package agent

import (
	"fmt"
	"strings"
)

// DefaultSystemPrompt is used when the manager is not given one.
const DefaultSystemPrompt = `You are an assistant working inside the user's notebook and document workspace.
Use the available tools to inspect and change the workspace when that helps answer the request.
Some tools need the user's approval; if a call is rejected, do not retry it unchanged and explain what you would have done.
Keep answers short and show code in fenced blocks.`

// buildSystemPrompt appends the skill catalogue to base.
func buildSystemPrompt(base string, skills SkillRegistry) string {
	if skills == nil {
		return base
	}
	list := skills.ListSkills("")
	if len(list) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n## Skills\n\n")
	b.WriteString("The following skills are available. Call load_skill with a skill name to read its instructions before following them.\n\n")
	for _, s := range list {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
