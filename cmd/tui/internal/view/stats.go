package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

type StatsModel struct {
	CommonModel
	reads *readmodel.Service

	stats   readmodel.Stats
	loading bool
}

func NewStatsModel(reads *readmodel.Service) StatsModel {
	return StatsModel{reads: reads, loading: true}
}

func (m StatsModel) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return m.reads.GetStats(ctx)
	}
}

func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readmodel.Stats:
		m.stats = msg
		m.loading = false
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.Init()
		}
	}

	return m, nil
}

func (m StatsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading stats...")
	}

	label := lipgloss.NewStyle().Width(22)
	row := func(name string, v int64) string {
		return label.Render(name) + activeStyle(fmt.Sprint(v))
	}

	return lipgloss.NewStyle().Padding(2).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("Platform Stats"),
		"",
		row("Users", m.stats.Users),
		row("Books", m.stats.Books),
		row("Transactions", m.stats.Transactions),
		row("Exchange requests", m.stats.Requests),
		row("Fee revenue (credits)", m.stats.Revenue),
		"",
		"(r: refresh | Esc: back)",
	))
}
