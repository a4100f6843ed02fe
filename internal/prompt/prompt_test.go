package prompt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestChooseSingleEntryWithoutAsking(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(""), &out)
	index, err := p.Choose("Select server index", []string{"only"})
	if err != nil {
		t.Fatalf("Choose returned error: %v", err)
	}
	if index != 0 {
		t.Fatalf("expected index 0, got %d", index)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestChooseRepromptsOnInvalidInput(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("abc\n7\n-1\n1\n"), &out)
	index, err := p.Choose("Select section index", []string{"Movies", "TV Shows"})
	if err != nil {
		t.Fatalf("Choose returned error: %v", err)
	}
	if index != 1 {
		t.Fatalf("expected index 1, got %d", index)
	}
	text := out.String()
	if !strings.Contains(text, "  0: Movies\n  1: TV Shows\n") {
		t.Fatalf("expected numbered list, got %q", text)
	}
	if got := strings.Count(text, "Select section index: "); got != 4 {
		t.Fatalf("expected 4 prompts, got %d in %q", got, text)
	}
}

func TestChooseAcceptsFinalLineWithoutNewline(t *testing.T) {
	p := New(strings.NewReader("0"), io.Discard)
	index, err := p.Choose("pick", []string{"a", "b"})
	if err != nil || index != 0 {
		t.Fatalf("expected index 0, got %d (%v)", index, err)
	}
}

func TestChooseEOFIsError(t *testing.T) {
	p := New(strings.NewReader("x\n"), io.Discard)
	_, err := p.Choose("pick", []string{"a", "b"})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestChooseEmpty(t *testing.T) {
	p := New(strings.NewReader(""), io.Discard)
	if _, err := p.Choose("pick", nil); !errors.Is(err, ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}

func TestCredentialsFromPipe(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader(" alice\r\npass word\r\n"), &out)
	user, pass, err := p.Credentials()
	if err != nil {
		t.Fatalf("Credentials returned error: %v", err)
	}
	if user != "alice" || pass != "pass word" {
		t.Fatalf("unexpected credentials %q / %q", user, pass)
	}
	if !strings.Contains(out.String(), "Plex Username: ") || !strings.Contains(out.String(), "Password: ") {
		t.Fatalf("unexpected prompts %q", out.String())
	}
}

func TestCredentialsMissingPassword(t *testing.T) {
	p := New(strings.NewReader("alice\n"), io.Discard)
	if _, _, err := p.Credentials(); err == nil {
		t.Fatal("expected error when password is missing")
	}
}
