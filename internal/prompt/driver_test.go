package prompt

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/go-cmp/cmp"
)

func TestScript_AnswersInOrder(t *testing.T) {
	ctx := context.Background()
	s := NewScript("Jane", "", "Deep", "1", "yes")

	name, err := s.Input(ctx, InputConfig{Message: "Name"})
	if err != nil || name != "Jane" {
		t.Fatalf("input: %q %v", name, err)
	}
	msg, _ := s.TextArea(ctx, TextAreaConfig{Message: "Message", Default: "hello"})
	if msg != "hello" {
		t.Fatalf("empty answer should fall back to default, got %q", msg)
	}
	opts := []string{"Standard", "Deep", "Move"}
	if idx, _ := s.Select(ctx, SelectConfig{Message: "Service", Options: opts}); idx != 1 {
		t.Fatalf("select by label: %d", idx)
	}
	if idx, _ := s.Select(ctx, SelectConfig{Message: "Again", Options: opts}); idx != 1 {
		t.Fatalf("select by index: %d", idx)
	}
	if ok, _ := s.Confirm(ctx, ConfirmConfig{Message: "Send?"}); !ok {
		t.Fatalf("expected confirm")
	}

	if _, err := s.Input(ctx, InputConfig{Message: "Extra"}); !errors.Is(err, ErrScriptExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	want := []string{"Name", "Message", "Service", "Again", "Send?", "Extra"}
	if diff := cmp.Diff(want, s.Asked()); diff != "" {
		t.Fatalf("asked mismatch (-want +got):\n%s", diff)
	}
}

func TestScript_ValidatorAndUnknownOption(t *testing.T) {
	ctx := context.Background()
	s := NewScript("bad", "Nope")
	fail := errors.New("invalid")

	if _, err := s.Input(ctx, InputConfig{Message: "ZIP", Validator: func(string) error { return fail }}); !errors.Is(err, fail) {
		t.Fatalf("expected validator error, got %v", err)
	}
	if _, err := s.Select(ctx, SelectConfig{Message: "Pick", Options: []string{"A"}}); err == nil {
		t.Fatalf("expected unknown option error")
	}
}

func TestSurveyDriver_InfoAndCanceledContext(t *testing.T) {
	var buf bytes.Buffer
	d := NewSurvey(&buf)
	if err := d.Info(context.Background(), "hello"); err != nil || buf.String() != "hello\n" {
		t.Fatalf("info: %q %v", buf.String(), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Input(ctx, InputConfig{Message: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	if !errors.Is(translateSurveyErr(terminal.InterruptErr), ErrAborted) {
		t.Fatalf("interrupt should map to ErrAborted")
	}
	other := errors.New("boom")
	if translateSurveyErr(other) != other {
		t.Fatalf("other errors pass through")
	}
}

func TestStringValidator(t *testing.T) {
	v := stringValidator(func(s string) error {
		if s == "" {
			return errors.New("empty")
		}
		return nil
	})
	if v("ok") != nil || v("") == nil || v(42) == nil {
		t.Fatalf("unexpected validator behavior")
	}
}
