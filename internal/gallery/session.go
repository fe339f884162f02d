package gallery

import (
	"context"
	"errors"
	"strings"

	"github.com/sena168/satujam/internal/gateway"
)

var (
	ErrBusy        = errors.New("a generation is already in flight")
	ErrEmptyPrompt = errors.New("prompt is empty")
)

type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

type Status struct {
	Kind    StatusKind
	Message string
}

func (s Status) IsError() bool {
	return s.Kind == StatusError
}

const (
	MessageEmptyPrompt = "Please enter a prompt first."
	MessageDone        = "Done."
)

// Session adds the one-generation-at-a-time rule and the status line on top
// of a Manager.
type Session struct {
	manager  *Manager
	endpoint string
	busy     bool
	status   Status
}

// NewSession wraps m. endpoint names the upstream in the loading message.
func NewSession(m *Manager, endpoint string) *Session {
	if endpoint == "" {
		endpoint = "image"
	}
	return &Session{manager: m, endpoint: endpoint}
}

func (s *Session) Manager() *Manager {
	return s.manager
}

func (s *Session) Busy() bool {
	return s.busy
}

func (s *Session) Status() Status {
	return s.status
}

// Begin checks the prompt locally and marks the session busy. A blank prompt
// never reaches the network.
func (s *Session) Begin(prompt string) error {
	if s.busy {
		return ErrBusy
	}
	if strings.TrimSpace(prompt) == "" {
		s.status = Status{Kind: StatusError, Message: MessageEmptyPrompt}
		return ErrEmptyPrompt
	}
	s.busy = true
	s.status = Status{Kind: StatusLoading, Message: "Calling " + s.endpoint + " endpoint…"}
	return nil
}

// Complete finishes the generation started by Begin. On failure the history
// is left unchanged and the status carries the error message.
func (s *Session) Complete(prompt string, res *gateway.Result, err error) (*Item, error) {
	s.busy = false
	if err == nil && res == nil {
		err = errors.New("generation returned no result")
	}
	if err != nil {
		s.status = Status{Kind: StatusError, Message: err.Error()}
		return nil, err
	}

	item, err := s.manager.RecordSuccess(res.ID, prompt, res.Image)
	if err != nil {
		s.status = Status{Kind: StatusError, Message: err.Error()}
		return nil, err
	}
	s.status = Status{Kind: StatusSuccess, Message: MessageDone}
	return item, nil
}

// Generate runs Begin, the generator and Complete in sequence.
func (s *Session) Generate(ctx context.Context, gen gateway.Generator, prompt string) (*Item, error) {
	if err := s.Begin(prompt); err != nil {
		return nil, err
	}
	res, err := gen.Generate(ctx, prompt)
	return s.Complete(prompt, res, err)
}

// SetStatus lets clients report outcomes of menu actions on the status line.
func (s *Session) SetStatus(kind StatusKind, message string) {
	s.status = Status{Kind: kind, Message: message}
}
