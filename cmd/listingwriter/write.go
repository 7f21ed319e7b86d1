package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/listingwriter/client"
	"github.com/a-h/listingwriter/models"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type WriteCommand struct {
	ServerURL string `help:"The URL of the listing writer server." env:"LISTINGWRITER_URL" default:"http://localhost:9020"`
	Password  string `help:"The access password. Asked for in the UI if empty." env:"LISTINGWRITER_PASSWORD" default:""`
	Variant   string `help:"The prompt variant to use." default:""`
	Suggest   bool   `help:"Suggest keywords with each description." default:"false"`
	TopN      int    `help:"The number of keywords to suggest." default:"5"`
	LogLevel  string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c WriteCommand) Run(ctx context.Context) (err error) {
	lwc := client.New(c.ServerURL)
	defer lwc.LogoutPost(ctx)

	m := newModel(ctx, lwc.LoginPost, func(ctx context.Context, text string, suggest bool) (models.GeneratePostResponse, error) {
		return lwc.GeneratePost(ctx, models.GeneratePostRequest{
			Text:    text,
			Variant: c.Variant,
			Suggest: suggest,
			TopN:    c.TopN,
		})
	})
	m.suggest = c.Suggest
	if c.Password != "" {
		if err = lwc.LoginPost(ctx, c.Password); err != nil {
			return err
		}
		m = m.authenticated()
	}

	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(model); ok && fm.output != "" {
		fmt.Println(fm.output)
	}
	return nil
}

// Dracula color scheme.
var (
	Background  = lipgloss.Color("#282a36")
	CurrentLine = lipgloss.Color("#44475a")
	Comment     = lipgloss.Color("#6272a4")
	Cyan        = lipgloss.Color("#8be9fd")
	Pink        = lipgloss.Color("#ff79c6")
	Purple      = lipgloss.Color("#bd93f9")
	Red         = lipgloss.Color("#ff5555")
)

var (
	titleStyle   = lipgloss.NewStyle().Background(CurrentLine).Foreground(Purple).Bold(true).Padding(0, 1)
	outputStyle  = lipgloss.NewStyle().Padding(1).Margin(1).MarginBottom(0).Background(Background).Foreground(Cyan)
	keywordStyle = lipgloss.NewStyle().Margin(0, 1).Foreground(Pink)
	errorStyle   = lipgloss.NewStyle().Margin(0, 1).Foreground(Red)
	helpStyle    = lipgloss.NewStyle().Margin(0, 1).Foreground(Comment)
)

type state int

const (
	stateUnauthenticated state = iota
	stateIdle
	stateGenerating
	stateDisplayed
	stateError
)

var stateNames = map[state]string{
	stateUnauthenticated: "locked",
	stateIdle:            "ready",
	stateGenerating:      "generating",
	stateDisplayed:       "done",
	stateError:           "error",
}

func (s state) String() string {
	return stateNames[s]
}

type loginFunc func(ctx context.Context, password string) error
type generateFunc func(ctx context.Context, text string, suggest bool) (models.GeneratePostResponse, error)

type loginResultMsg struct {
	err error
}

type generatedMsg struct {
	resp models.GeneratePostResponse
	err  error
}

type model struct {
	ctx      context.Context
	state    state
	password textinput.Model
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	login    loginFunc
	generate generateFunc
	suggest  bool
	err      error
	output   string
	keywords []string
	// suggestionErr is set when keywords were asked for but couldn't be suggested.
	suggestionErr string
}

func newModel(ctx context.Context, login loginFunc, generate generateFunc) model {
	pw := textinput.New()
	pw.Placeholder = "Password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.Prompt = "┃ "
	pw.Focus()

	ta := textarea.New()
	ta.Placeholder = "Paste a product description in English or Polish..."
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(6)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false

	return model{
		ctx:      ctx,
		state:    stateUnauthenticated,
		password: pw,
		textarea: ta,
		viewport: viewport.New(80, 12),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		login:    login,
		generate: generate,
	}
}

func (m model) authenticated() model {
	m.state = stateIdle
	m.err = nil
	m.password.Reset()
	m.password.Blur()
	m.textarea.Focus()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, textarea.Blink)
}

func (m model) loginCmd(password string) tea.Cmd {
	return func() tea.Msg {
		return loginResultMsg{err: m.login(m.ctx, password)}
	}
}

func (m model) generateCmd(text string) tea.Cmd {
	suggest := m.suggest
	return func() tea.Msg {
		resp, err := m.generate(m.ctx, text, suggest)
		return generatedMsg{resp: resp, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.password.Reset()
			return m, nil
		}
		return m.authenticated(), nil
	case generatedMsg:
		if msg.err != nil {
			m.state = stateError
			m.err = msg.err
			return m, nil
		}
		m.state = stateDisplayed
		m.err = nil
		m.output = msg.resp.Formatted
		m.suggestionErr = msg.resp.SuggestionError
		m.keywords = m.keywords[:0]
		for _, k := range msg.resp.Keywords {
			m.keywords = append(m.keywords, k.Keyword)
		}
		m.viewport.SetContent(outputStyle.Render(wordwrap.String(m.output, max(m.viewport.Width-4, 20))))
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if m.state != stateGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.textarea.SetWidth(msg.Width)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-m.textarea.Height()-8, 3)
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	case cursor.BlinkMsg:
		var cmd tea.Cmd
		if m.state == stateUnauthenticated {
			m.password, cmd = m.password.Update(msg)
		} else {
			m.textarea, cmd = m.textarea.Update(msg)
		}
		return m, cmd
	default:
		return m, nil
	}
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		return m, tea.Quit
	}
	if m.state == stateUnauthenticated {
		if msg.String() == "enter" {
			return m, m.loginCmd(m.password.Value())
		}
		var cmd tea.Cmd
		m.password, cmd = m.password.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case "ctrl+s":
		if m.state == stateGenerating {
			return m, nil
		}
		m.state = stateGenerating
		m.err = nil
		return m, tea.Batch(m.generateCmd(m.textarea.Value()), m.spinner.Tick)
	case "ctrl+k":
		m.suggest = !m.suggest
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if m.state == stateGenerating {
		return m, nil
	}
	if m.state == stateError {
		m.state = stateIdle
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Listing writer · " + m.state.String()))
	sb.WriteString("\n\n")
	if m.state == stateUnauthenticated {
		sb.WriteString(m.password.View())
		sb.WriteString("\n\n")
		if m.err != nil {
			sb.WriteString(errorStyle.Render(m.err.Error()))
			sb.WriteString("\n\n")
		}
		sb.WriteString(helpStyle.Render("enter: log in · esc: quit"))
		return sb.String() + "\n"
	}
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n\n")
	switch m.state {
	case stateGenerating:
		sb.WriteString(m.spinner.View() + " Generating...")
		sb.WriteString("\n\n")
	case stateError:
		sb.WriteString(errorStyle.Render(m.err.Error()))
		sb.WriteString("\n\n")
	case stateDisplayed:
		sb.WriteString(m.viewport.View())
		sb.WriteString("\n")
		if len(m.keywords) > 0 {
			sb.WriteString(keywordStyle.Render("Keywords: " + strings.Join(m.keywords, ", ")))
			sb.WriteString("\n")
		}
		if m.suggestionErr != "" {
			sb.WriteString(errorStyle.Render("Keyword suggestions unavailable: " + m.suggestionErr))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	suggest := "off"
	if m.suggest {
		suggest = "on"
	}
	sb.WriteString(helpStyle.Render(fmt.Sprintf("ctrl+s: generate · ctrl+k: keyword suggestions (%s) · esc: quit", suggest)))
	return sb.String() + "\n"
}
