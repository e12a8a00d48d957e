// Package reasoningtest provides a scripted Reasoner for tests.
package reasoningtest

import (
	"context"
	"sync"

	"github.com/fyrsmithlabs/recall/internal/reasoning"
)

// Fake returns scripted replies and records every request.
type Fake struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []reasoning.Request

	// Respond, when set, takes precedence over the scripted replies.
	Respond func(reasoning.Request) (*reasoning.Reply, error)
}

// Reply returns a Fake answering with replies in order; the last one repeats.
func Reply(replies ...string) *Fake {
	return &Fake{replies: replies}
}

// Failing returns a Fake whose every call fails with err.
func Failing(err error) *Fake {
	return &Fake{err: err}
}

// Complete implements reasoning.Reasoner.
func (f *Fake) Complete(_ context.Context, req reasoning.Request) (*reasoning.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.Respond != nil {
		return f.Respond(req)
	}
	if f.err != nil {
		return nil, f.err
	}

	text := ""
	if n := len(f.replies); n > 0 {
		idx := len(f.requests) - 1
		if idx >= n {
			idx = n - 1
		}
		text = f.replies[idx]
	}
	return &reasoning.Reply{Text: text, Model: "fake", StopReason: "end_turn"}, nil
}

// Calls returns the number of requests received.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of every request received.
func (f *Fake) Requests() []reasoning.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reasoning.Request(nil), f.requests...)
}

// LastText returns the concatenated text blocks of the last request.
func (f *Fake) LastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ""
	}
	var out string
	for _, b := range f.requests[len(f.requests)-1].Content {
		if b.Type == reasoning.BlockText {
			out += b.Text
		}
	}
	return out
}

var _ reasoning.Reasoner = (*Fake)(nil)
