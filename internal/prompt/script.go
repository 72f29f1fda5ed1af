package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ErrScriptExhausted is returned when a Script runs out of answers.
var ErrScriptExhausted = errors.New("prompt: script exhausted")

// Script answers prompts from a fixed list, in order. Inputs and text areas
// consume the answer verbatim, confirms parse "y"/"yes"/"true", selects
// match an option label or a zero based index. Info lines are collected.
type Script struct {
	mu      sync.Mutex
	answers []string
	asked   []string
	infos   []string
}

func NewScript(answers ...string) *Script {
	return &Script{answers: answers}
}

func (s *Script) next(message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, message)
	if len(s.answers) == 0 {
		return "", fmt.Errorf("%w at %q", ErrScriptExhausted, message)
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func (s *Script) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer, err := s.next(cfg.Message)
	if err != nil {
		return "", err
	}
	if answer == "" {
		answer = cfg.Default
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (s *Script) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	answer, err := s.next(cfg.Message)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return cfg.Default, nil
	case "y", "yes", "true":
		return true, nil
	}
	return false, nil
}

func (s *Script) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	answer, err := s.next(cfg.Message)
	if err != nil {
		return 0, err
	}
	if idx := indexOf(cfg.Options, answer); idx >= 0 {
		return idx, nil
	}
	if idx, convErr := strconv.Atoi(answer); convErr == nil && idx >= 0 && idx < len(cfg.Options) {
		return idx, nil
	}
	return 0, fmt.Errorf("prompt: %q is not an option of %q", answer, cfg.Message)
}

func (s *Script) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	return s.Input(ctx, InputConfig{Message: cfg.Message, Default: cfg.Default})
}

func (s *Script) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos = append(s.infos, msg)
	return nil
}

// Asked returns every prompt message seen so far.
func (s *Script) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.asked...)
}

// Infos returns every Info line seen so far.
func (s *Script) Infos() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.infos...)
}

// Remaining reports unanswered script entries.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
