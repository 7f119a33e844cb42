package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// confirmRequest is a question waiting for the user's answer.
type confirmRequest struct {
	prompt string
	reply  chan bool
}

func (r confirmRequest) answer(ok bool) {
	r.reply <- ok
}

// confirmRequestMsg delivers a pending question to the TUI.
type confirmRequestMsg confirmRequest

// promptGate is the TUI's ConfirmGate. Confirm blocks the calling command
// while the question is shown as a dialog and answered with y/n.
type promptGate struct {
	requests chan confirmRequest
}

var _ ConfirmGate = (*promptGate)(nil)

func newPromptGate() *promptGate {
	return &promptGate{requests: make(chan confirmRequest)}
}

// Confirm hands prompt to the UI and blocks until it answers or ctx ends.
func (g *promptGate) Confirm(ctx context.Context, prompt string) (bool, error) {
	req := confirmRequest{prompt: prompt, reply: make(chan bool, 1)}
	select {
	case g.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// wait returns a command that delivers the next question. It has to be
// re-issued after every answer.
func (g *promptGate) wait() tea.Cmd {
	return func() tea.Msg {
		return confirmRequestMsg(<-g.requests)
	}
}
