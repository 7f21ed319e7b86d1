package main

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/listingwriter/models"
	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+k":
		return tea.KeyMsg{Type: tea.KeyCtrlK}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return nm, cmd
}

func TestWriteShowsSuggestionErrors(t *testing.T) {
	m := newModel(context.Background(), nil, nil).authenticated()
	m, _ = update(t, m, generatedMsg{resp: models.GeneratePostResponse{
		Formatted:       "- Punkt 1",
		SuggestionError: "the configured model doesn't support embeddings",
	}})
	if m.state != stateDisplayed {
		t.Fatalf("expected the output to be displayed, got %v", m.state)
	}
	if !strings.Contains(m.View(), "the configured model doesn't support embeddings") {
		t.Errorf("expected the suggestion error in the view:\n%s", m.View())
	}

	m, _ = update(t, m, generatedMsg{resp: models.GeneratePostResponse{Formatted: "- Punkt 2"}})
	if strings.Contains(m.View(), "Keyword suggestions unavailable") {
		t.Errorf("expected the suggestion error to clear:\n%s", m.View())
	}
}

func TestWriteStateMachine(t *testing.T) {
	var passwords []string
	login := func(ctx context.Context, password string) error {
		passwords = append(passwords, password)
		if password != "pw" {
			return failure.New(failure.Auth, "wrong password, try again")
		}
		return nil
	}
	var generated []string
	generate := func(ctx context.Context, text string, suggest bool) (models.GeneratePostResponse, error) {
		generated = append(generated, text)
		if strings.TrimSpace(text) == "" {
			return models.GeneratePostResponse{}, failure.New(failure.EmptyInput, "please enter a product description before generating")
		}
		resp := models.GeneratePostResponse{Formatted: "- Punkt 1\n- Punkt 2"}
		if suggest {
			resp.Keywords = []models.KeywordSuggestion{{Keyword: "krzesło", Score: 0.9}}
		}
		return resp, nil
	}
	m := newModel(context.Background(), login, generate)
	if m.state != stateUnauthenticated {
		t.Fatalf("expected to start locked, got %v", m.state)
	}

	// Generating is not possible before logging in.
	m, _ = update(t, m, key("ctrl+s"))
	if m.state != stateUnauthenticated || len(generated) != 0 {
		t.Fatalf("expected no generation before login, state %v", m.state)
	}

	// A wrong password keeps the UI locked.
	m, _ = update(t, m, key("x"))
	m, cmd := update(t, m, key("enter"))
	m, _ = update(t, m, cmd())
	if m.state != stateUnauthenticated {
		t.Fatalf("expected to stay locked, got %v", m.state)
	}
	if !strings.Contains(m.View(), "wrong password, try again") {
		t.Errorf("expected the login error in the view:\n%s", m.View())
	}

	// The right password unlocks it.
	m, _ = update(t, m, key("pw"))
	m, cmd = update(t, m, key("enter"))
	m, _ = update(t, m, cmd())
	if m.state != stateIdle {
		t.Fatalf("expected to be idle after login, got %v", m.state)
	}
	if passwords[len(passwords)-1] != "pw" {
		t.Errorf("expected the typed password to be sent, got %q", passwords[len(passwords)-1])
	}

	// Empty text shows an error, and typing returns to idle.
	m, _ = update(t, m, key("ctrl+s"))
	if m.state != stateGenerating {
		t.Fatalf("expected to be generating, got %v", m.state)
	}
	m, _ = update(t, m, generatedMsg{err: failure.New(failure.EmptyInput, "please enter a product description before generating")})
	if m.state != stateError {
		t.Fatalf("expected an error state, got %v", m.state)
	}
	m, _ = update(t, m, key("c"))
	if m.state != stateIdle {
		t.Fatalf("expected typing to return to idle, got %v", m.state)
	}

	// The trigger is disabled while generating.
	m, _ = update(t, m, key("ctrl+k"))
	m, cmd = update(t, m, key("ctrl+s"))
	if cmd == nil {
		t.Fatal("expected a generate command")
	}
	m, second := update(t, m, key("ctrl+s"))
	if second != nil {
		t.Error("expected a second trigger to be ignored while generating")
	}
	m, _ = update(t, m, key("z"))
	if m.textarea.Value() != "c" {
		t.Errorf("expected typing to be ignored while generating, got %q", m.textarea.Value())
	}

	resp, err := generate(context.Background(), m.textarea.Value(), m.suggest)
	m, _ = update(t, m, generatedMsg{resp: resp, err: err})
	if m.state != stateDisplayed {
		t.Fatalf("expected the output to be displayed, got %v", m.state)
	}
	if m.output != "- Punkt 1\n- Punkt 2" {
		t.Errorf("unexpected output %q", m.output)
	}
	if len(m.keywords) != 1 || m.keywords[0] != "krzesło" {
		t.Errorf("unexpected keywords %v", m.keywords)
	}
}
