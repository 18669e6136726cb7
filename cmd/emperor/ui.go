package main

import (
	"context"
	"fmt"
	"time"

	"emperor/internal/action"
	"emperor/internal/api"
	cl "emperor/internal/cli"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printAccent(msg string) {
	accent.Println(msg)
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printNeutral(msg string) {
	neutral.Println(msg)
}

func printDescriptor(desc action.Descriptor) {
	accent.Println(desc.Title)
	neutral.Println(desc.Description)
	for _, a := range desc.Links.Actions {
		success.Printf("%s  ->  %s\n", a.Label, a.Href)
	}
}

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type descMsg action.Descriptor

type errMsg struct{ err error }

type pollMsg time.Time

type watchModel struct {
	client  *cl.Client
	every   time.Duration
	spinner spinner.Model
	desc    action.Descriptor
	err     error
	loaded  bool
}

func runWatchUI(client *cl.Client, every time.Duration) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := watchModel{client: client, every: every, spinner: sp}
	_, err := tea.NewProgram(m).Run()
	return err
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchDescriptor(m.client))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, fetchDescriptor(m.client)
		}
	case descMsg:
		m.desc = action.Descriptor(msg)
		m.err = nil
		m.loaded = true
		return m, m.schedulePoll()
	case errMsg:
		m.err = msg.err
		m.loaded = true
		return m, m.schedulePoll()
	case pollMsg:
		return m, fetchDescriptor(m.client)
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m watchModel) View() string {
	if !m.loaded {
		return fmt.Sprintf("\n %s fetching throne state...\n", m.spinner.View())
	}

	var body string
	if m.err != nil {
		body = errStyle.Render(fmt.Sprintf("poll failed: %v", m.err))
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.desc.Title),
			"",
			m.desc.Description,
			"",
			dimStyle.Render(m.desc.Label),
		)
	}

	footer := dimStyle.Render(fmt.Sprintf("%s refreshing every %s  |  r refresh  q quit", m.spinner.View(), m.every))
	return boxStyle.Render(body) + "\n" + footer + "\n"
}

func (m watchModel) schedulePoll() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func fetchDescriptor(client *cl.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		desc, err := client.Descriptor(ctx, api.ActionPath)
		if err != nil {
			return errMsg{err: err}
		}
		return descMsg(desc)
	}
}
