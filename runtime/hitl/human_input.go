// Package hitl implements the human-in-the-loop collaborators a crew
// reaches through an interface rather than calling directly: feedback
// collection on a finished answer, content preprocessing, and pausing a
// task to request a human response.
package hitl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// HumanInputProvider drives the feedback loop that follows an agent's
// answer when a task has human_input set.
type HumanInputProvider interface {
	// SetupMessages runs before standard message setup. Returning true
	// means the provider handled setup itself (e.g. conversation resume)
	// and PostSetupMessages will not be called.
	SetupMessages() bool
	// PostSetupMessages runs after standard setup, only when SetupMessages
	// returned false.
	PostSetupMessages()
	// HandleFeedback runs the full feedback round-trip over
	// formattedAnswer and returns the (possibly revised) final answer.
	HandleFeedback(formattedAnswer string, isTrainingMode bool) string
}

// SyncHumanInputProvider is the default HumanInputProvider: a blocking
// stdin prompt loop. Training mode shows one prompt and accepts one round;
// non-training mode loops until the reviewer submits empty input.
type SyncHumanInputProvider struct {
	In  io.Reader
	Out io.Writer
}

func (p *SyncHumanInputProvider) reader() io.Reader {
	if p.In != nil {
		return p.In
	}
	return os.Stdin
}

func (p *SyncHumanInputProvider) writer() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}

func (p *SyncHumanInputProvider) SetupMessages() bool { return false }
func (p *SyncHumanInputProvider) PostSetupMessages()  {}

// HandleFeedback prompts for feedback and returns the latest non-empty
// submission, or formattedAnswer unchanged if the reviewer never submits
// anything.
func (p *SyncHumanInputProvider) HandleFeedback(formattedAnswer string, isTrainingMode bool) string {
	current := formattedAnswer
	scanner := bufio.NewScanner(p.reader())
	for {
		fmt.Fprint(p.writer(), promptBanner(isTrainingMode))
		if !scanner.Scan() {
			return current
		}
		feedback := strings.TrimSpace(scanner.Text())
		if feedback == "" {
			return current
		}
		current = feedback
		if isTrainingMode {
			return current
		}
	}
}

func promptBanner(isTrainingMode bool) string {
	if isTrainingMode {
		return "\n--- Training Feedback Required ---\n" +
			"Provide feedback to improve the agent's performance.\n" +
			"This will be used to train better versions of the agent.\n> "
	}
	return "\n--- Human Feedback Required ---\n" +
		"Provide feedback on the result above.\n" +
		"Press Enter without typing to accept the current result.\n" +
		"Otherwise, provide specific improvement requests.\n> "
}

var humanInputProvider atomic.Pointer[HumanInputProvider]

// HumanInput returns the process-wide HumanInputProvider, defaulting to a
// SyncHumanInputProvider reading from os.Stdin.
func HumanInput() HumanInputProvider {
	if p := humanInputProvider.Load(); p != nil {
		return *p
	}
	def := HumanInputProvider(&SyncHumanInputProvider{})
	humanInputProvider.CompareAndSwap(nil, &def)
	return *humanInputProvider.Load()
}

// SetHumanInput installs the process-wide HumanInputProvider.
func SetHumanInput(p HumanInputProvider) { humanInputProvider.Store(&p) }

// ResetHumanInput clears the process-wide HumanInputProvider, so the next
// HumanInput call reinstalls the default.
func ResetHumanInput() { humanInputProvider.Store(nil) }
