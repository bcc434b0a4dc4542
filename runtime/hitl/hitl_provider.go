package hitl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// HITLProvider pauses task execution to request human input and resumes
// with the human's response. Unlike HumanInputProvider's post-answer
// feedback loop, a HITLProvider can be consulted mid-task (web-based,
// API-based, or console, per implementation).
type HITLProvider interface {
	RequestInput(ctx context.Context, prompt string, reqContext map[string]any) (string, error)
	ResumeWithInput(ctx context.Context, taskID, input string) (any, error)
	IsEnabled() bool
}

// ConsoleHITLProvider is the default HITLProvider: it prints the prompt to
// stdout and reads one line from stdin.
type ConsoleHITLProvider struct {
	In  io.Reader
	Out io.Writer
}

func (p *ConsoleHITLProvider) reader() io.Reader {
	if p.In != nil {
		return p.In
	}
	return os.Stdin
}

func (p *ConsoleHITLProvider) writer() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}

func (p *ConsoleHITLProvider) RequestInput(_ context.Context, prompt string, _ map[string]any) (string, error) {
	fmt.Fprintln(p.writer(), prompt)
	scanner := bufio.NewScanner(p.reader())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func (p *ConsoleHITLProvider) ResumeWithInput(_ context.Context, _, input string) (any, error) {
	return input, nil
}

func (p *ConsoleHITLProvider) IsEnabled() bool { return true }

var hitlProvider atomic.Pointer[HITLProvider]

// HITL returns the process-wide HITLProvider, defaulting to a
// ConsoleHITLProvider.
func HITL() HITLProvider {
	if p := hitlProvider.Load(); p != nil {
		return *p
	}
	def := HITLProvider(&ConsoleHITLProvider{})
	hitlProvider.CompareAndSwap(nil, &def)
	return *hitlProvider.Load()
}

// SetHITL installs the process-wide HITLProvider.
func SetHITL(p HITLProvider) { hitlProvider.Store(&p) }

// ResetHITL clears the process-wide HITLProvider, reverting to
// ConsoleHITLProvider.
func ResetHITL() { hitlProvider.Store(nil) }
