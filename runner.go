package qabot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/necyberteam/qabot/pkg/domain"
)

// Runner drives a Bot over line-oriented IO. It exists for the terminal
// client and for tests; web hosts talk to the Bot directly.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer transforms message content before it is written, for
// example markdown to ANSI. A nil renderer writes content verbatim.
type ContentRenderer func(string) (string, error)

// Run executes the conversation loop until EOF or an explicit exit.
func (r *Runner) Run(ctx context.Context, bot *Bot) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)
	writer := r.Output

	post := func(msg string) {
		fmt.Fprintln(writer, r.render(msg))
	}

	state := bot.Start()
	view, err := bot.Render(ctx, state, post)
	if err != nil {
		return fmt.Errorf("render error: %w", err)
	}

	for {
		r.display(writer, view)

		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)

		if input == "exit" || input == "quit" {
			fmt.Fprintln(writer, "Bye!")
			return nil
		}

		// A bare number picks the corresponding option.
		if n, convErr := strconv.Atoi(input); convErr == nil && n >= 1 && n <= len(view.Options) {
			input = view.Options[n-1]
		}

		state, view, err = bot.Navigate(ctx, state, domain.TextInput(input), post)
		if err != nil {
			return fmt.Errorf("navigation error: %w", err)
		}
	}
}

func (r *Runner) display(writer io.Writer, view *View) {
	if view.Rejection != "" {
		fmt.Fprintln(writer, r.render(view.Rejection))
	}
	if view.Message != "" {
		fmt.Fprintln(writer, r.render(view.Message))
	}
	for i, opt := range view.Options {
		fmt.Fprintf(writer, "  [%d] %s\n", i+1, opt)
	}
}

func (r *Runner) render(content string) string {
	if r.Renderer == nil {
		return strings.TrimSpace(content)
	}
	rendered, err := r.Renderer(content)
	if err != nil {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(rendered)
}
