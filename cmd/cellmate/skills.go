package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/cellmate/config"
	"github.com/spetersoncode/cellmate/skill"
)

func newSkillsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills [query]",
		Short: "List installed skills",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := skill.LoadDir(cfg.SkillsDir)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			out := cmd.OutOrStdout()
			summaries := lib.ListSkills(query)
			if len(summaries) == 0 {
				fmt.Fprintln(out, gray("no skills in "+cfg.SkillsDir))
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(out, "%s  %s\n", bold(s.Name), s.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a skill's instructions and resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := skill.LoadDir(cfg.SkillsDir)
			if err != nil {
				return err
			}
			s, ok := lib.GetSkill(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", skill.ErrSkillNotFound, args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n\n%s\n", bold(s.Name), gray(s.Description), strings.TrimSpace(s.Instructions))
			for _, r := range s.Resources {
				fmt.Fprintln(out, gray("  "+r))
			}
			return nil
		},
	})
	return cmd
}
