package bot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"engagebot/command"
	"engagebot/events"
	"engagebot/models"

	log "github.com/sirupsen/logrus"
)

// Console reads operator commands line by line and prints their results
type Console struct {
	in     io.Reader
	out    io.Writer
	prompt string
	loop   *events.Loop

	mu sync.Mutex
}

func NewConsole(in io.Reader, out io.Writer, name string, loop *events.Loop) *Console {
	return &Console{
		in:     in,
		out:    out,
		prompt: name + "> ",
		loop:   loop,
	}
}

// Run reads input until it is exhausted or ctx is cancelled. Each line is
// dispatched on the event loop as the console operator.
func (c *Console) Run(ctx context.Context, dispatcher *command.Dispatcher) error {
	c.Prompt()
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err != nil {
				return fmt.Errorf("failed to read console input: %w", err)
			}
			return nil
		case line := <-lines:
			c.handle(ctx, dispatcher, line)
		}
	}
}

func (c *Console) handle(ctx context.Context, dispatcher *command.Dispatcher, line string) {
	if strings.TrimSpace(line) == "" {
		c.Prompt()
		return
	}
	err := c.loop.Call(ctx, func(ctx context.Context) {
		response, _ := dispatcher.Handle(ctx, line, command.Call{Caller: models.ConsoleOperator{}})
		c.Print(response)
	})
	if err != nil {
		log.WithError(err).Warn("Console command dropped")
	}
	c.Prompt()
}

// Print writes a line of output. Empty text prints nothing.
func (c *Console) Print(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

func (c *Console) Prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, c.prompt)
}
