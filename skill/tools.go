package skill

import (
	"context"
	"fmt"
	"strings"

	"github.com/spetersoncode/cellmate/tool"
)

type loadArgs struct {
	Name string `json:"name" jsonschema:"description=Name of the skill to load"`
}

type resourceArgs struct {
	Name string `json:"name" jsonschema:"description=Name of the skill owning the resource"`
	Path string `json:"path" jsonschema:"description=Resource path relative to the skill directory"`
}

// Tools returns registrations for the tools that let a model read skills:
// load_skill and read_skill_resource.
func Tools(lib *Library) []tool.Registration {
	return []tool.Registration{
		tool.Func("load_skill", "Load the full instructions of a skill listed in the system prompt.",
			func(ctx context.Context, args loadArgs) (string, error) {
				s, ok := lib.GetSkill(args.Name)
				if !ok {
					return "", fmt.Errorf("%w: %s", ErrSkillNotFound, args.Name)
				}
				return formatSkill(s), nil
			}),
		tool.Func("read_skill_resource", "Read a resource file bundled with a skill.",
			func(ctx context.Context, args resourceArgs) (string, error) {
				return lib.GetResource(args.Name, args.Path)
			}),
	}
}

func formatSkill(s Skill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", s.Name, s.Instructions)
	if len(s.Resources) > 0 {
		b.WriteString("\nResources:\n")
		for _, r := range s.Resources {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}
