package models

import (
	"context"
	"fmt"
	"strings"
)

// DummyLLM is a scripted model implementation useful for local testing without
// API calls. Responses are consumed in order; once exhausted it echoes the
// last user message.
type DummyLLM struct {
	Prefix  string
	scripts []Response
	calls   []Request
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

// Script appends a canned response to the playback queue.
func (d *DummyLLM) Script(resp Response) *DummyLLM {
	d.scripts = append(d.scripts, resp)
	return d
}

// Calls returns the requests observed so far.
func (d *DummyLLM) Calls() []Request {
	return d.calls
}

func (d *DummyLLM) Complete(_ context.Context, req Request) (Response, error) {
	d.calls = append(d.calls, req)

	if len(d.scripts) > 0 {
		next := d.scripts[0]
		d.scripts = d.scripts[1:]
		return next, nil
	}

	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			last = strings.TrimSpace(req.Messages[i].Content)
			break
		}
	}
	if last == "" {
		last = "<empty prompt>"
	}
	return Response{Content: fmt.Sprintf("%s %s", d.Prefix, last)}, nil
}

var _ Model = (*DummyLLM)(nil)
