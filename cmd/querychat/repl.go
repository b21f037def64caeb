package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"querydesk/chat"
	"querydesk/client"
	"querydesk/format"
	"querydesk/models"
)

type replOptions struct {
	Server  string
	User    string
	Timeout time.Duration
}

// consoleNotifier prints toasts inline. Success toasts are dropped; the
// answer itself is the feedback.
type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) Notify(title, message string, severity models.Severity) {
	if severity == models.SeveritySuccess {
		return
	}
	_, _ = fmt.Fprintf(n.w, "%s: %s\n", title, message)
}

func runREPL(cmd *cobra.Command, opts *replOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	remote := client.NewRemote(opts.Server, opts.User, opts.Timeout)
	ctrl := chat.NewController(remote, consoleNotifier{w: cmd.ErrOrStderr()})

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".querychat_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "query> ",
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(readline.PcItem(".help"), readline.PcItem(".raw"), readline.PcItem(".history"), readline.PcItem(".clear"), readline.PcItem(".quit")),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(out, "querychat (server: %s, user: %s)\n", opts.Server, opts.User)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		command, query := splitInput(line)
		if command != "" {
			if quit := handleDotCommand(ctx, out, ctrl, remote, command); quit {
				break
			}
			continue
		}

		ctrl.OnInputChange(query)
		entries, err := ctrl.OnSubmit(ctx)
		if err != nil {
			// the notifier already printed the message
			continue
		}
		renderEntries(out, entries)
		_, _ = fmt.Fprintln(out)
	}
	return nil
}

// splitInput tells REPL commands from queries. A leading ".." escapes a
// query that itself starts with a dot.
func splitInput(line string) (command, query string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, ".."):
		return "", trimmed[1:]
	case strings.HasPrefix(trimmed, "."):
		return trimmed, ""
	}
	return "", line
}

// handleDotCommand runs a REPL command and reports whether to exit.
func handleDotCommand(ctx context.Context, w io.Writer, ctrl *chat.Controller, svc chat.QueryService, line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true
	case ".help":
		printHelp(w)
	case ".raw":
		if strings.TrimSpace(arg) == "" {
			_, _ = fmt.Fprintln(w, "Usage: .raw <query>")
			return false
		}
		raw, err := svc.ProcessQuery(ctx, arg)
		if err != nil {
			_, _ = fmt.Fprintf(w, "Error: %v\n", err)
			return false
		}
		for _, l := range format.Lines(raw) {
			_, _ = fmt.Fprintln(w, l)
		}
	case ".history":
		renderHistory(w, ctrl.History().Entries())
	case ".clear":
		ctrl.OnClearHistory()
		_, _ = fmt.Fprintln(w, "Chat history cleared.")
	default:
		_, _ = fmt.Fprintf(w, "Unknown command: %s (type .help for commands)\n", line)
	}
	return false
}

func printHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .raw <query>    Run a query without adding it to the history
  .history        Show the chat history
  .clear          Clear the chat history
  .quit / .exit   Exit

Anything else is sent to the server as a query. Start a query with ".."
to send one that begins with a dot (..NET usage -> ".NET usage").
`
	_, _ = fmt.Fprintln(w, help)
}
