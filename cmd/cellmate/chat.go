package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/agent"
	"github.com/spetersoncode/cellmate/config"
	"github.com/spetersoncode/cellmate/event"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

const maxToolOutput = 400

func newChatCmd(cfg *config.Config) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, appOptions{history: sessionID != ""})
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.manager.NewSession(ctx, sessionID)
			if err != nil {
				return err
			}
			return newREPL(sess, cmd.InOrStdin(), cmd.OutOrStdout()).run(ctx)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "resume a persisted session by id")
	return cmd
}

// repl is a line-oriented chat loop. Approval markers in the streamed text
// are answered with a y/n prompt on the same input.
type repl struct {
	sess *agent.Session
	in   *bufio.Scanner
	out  io.Writer
}

func newREPL(sess *agent.Session, in io.Reader, out io.Writer) *repl {
	return &repl{sess: sess, in: bufio.NewScanner(in), out: out}
}

func (r *repl) run(ctx context.Context) error {
	provider := r.sess.ActiveProvider()
	if info, ok := r.sess.ModelInfo(); ok {
		provider = info.Provider.String() + "/" + info.Model
	}
	fmt.Fprintf(r.out, "%s %s\n", bold("cellmate"), gray(provider))
	fmt.Fprintln(r.out, gray("/help for commands, /quit to exit"))

	for {
		fmt.Fprint(r.out, cyan("> "))
		line, ok := r.readLine()
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		if err := r.send(ctx, line); err != nil {
			fmt.Fprintln(r.out, red(ai.Describe(err)))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *repl) readLine() (string, bool) {
	if !r.in.Scan() {
		return "", false
	}
	return r.in.Text(), true
}

func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/clear":
		r.sess.ClearHistory()
		fmt.Fprintln(r.out, gray("history cleared"))
	case "/tools":
		if arg != "" {
			if err := r.sess.SetSelectedTools(strings.Fields(arg)); err != nil {
				fmt.Fprintln(r.out, red(err.Error()))
				return false
			}
		}
		fmt.Fprintln(r.out, gray("tools: "+strings.Join(r.sess.SelectedTools(), ", ")))
	case "/provider":
		if arg == "" {
			fmt.Fprintln(r.out, gray("provider: "+r.sess.ActiveProvider()))
			return false
		}
		if err := r.sess.SetActiveProvider(ctx, arg); err != nil {
			fmt.Fprintln(r.out, red(err.Error()))
			return false
		}
		info, _ := r.sess.ModelInfo()
		fmt.Fprintln(r.out, gray(fmt.Sprintf("using %s/%s", info.Provider, info.Model)))
	case "/usage":
		u := r.sess.TokenUsage()
		fmt.Fprintln(r.out, gray(fmt.Sprintf("in %d  out %d  context %.1f%% of %d",
			u.InputTokens, u.OutputTokens, u.ContextPercent, u.ContextWindow)))
	case "/help":
		fmt.Fprintln(r.out, gray("/clear  /tools [names...]  /provider [id]  /usage  /quit"))
	default:
		fmt.Fprintln(r.out, red("unknown command "+name))
	}
	return false
}

func (r *repl) send(ctx context.Context, text string) error {
	events, err := r.sess.GenerateResponse(ctx, text)
	if err != nil {
		return err
	}

	for e := range events {
		switch e.Type {
		case event.MessageChunk:
			markers := agent.ParseMarkers(e.Delta)
			if len(markers) == 0 {
				fmt.Fprint(r.out, e.Delta)
				continue
			}
			fmt.Fprintln(r.out)
			for _, m := range markers {
				r.approve(m)
			}
		case event.ToolCallStart:
			fmt.Fprintf(r.out, "\n%s %s %s\n", yellow("⚙"), bold(e.ToolName), gray(string(e.Input)))
		case event.ToolCallComplete:
			out := truncate(e.Output, maxToolOutput)
			if e.IsError {
				fmt.Fprintln(r.out, red("  "+out))
			} else {
				fmt.Fprintln(r.out, gray("  "+out))
			}
		case event.MessageComplete:
			fmt.Fprintln(r.out)
		case event.Error:
			fmt.Fprintln(r.out)
			return e.Err
		}
	}
	return nil
}

// approve asks once per marker and applies the answer to every call in it.
func (r *repl) approve(m agent.Marker) {
	label := "tool call " + m.CallIDs[0]
	if m.GroupID != "" {
		label = fmt.Sprintf("%d tool calls", len(m.CallIDs))
	}
	fmt.Fprintf(r.out, "%s %s [y/N] ", yellow("approve"), label)

	answer, _ := r.readLine()
	approved := strings.EqualFold(strings.TrimSpace(answer), "y") ||
		strings.EqualFold(strings.TrimSpace(answer), "yes")
	for _, id := range m.CallIDs {
		if approved {
			r.sess.ApproveToolCall(id)
		} else {
			r.sess.RejectToolCall(id)
		}
	}
	if approved {
		fmt.Fprintln(r.out, green("approved"))
	} else {
		fmt.Fprintln(r.out, red("rejected"))
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
