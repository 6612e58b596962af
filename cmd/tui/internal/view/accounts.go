package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/bookxchange/internal/account"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

type accountsState int

const (
	accountsStateBrowse accountsState = iota
	accountsStateEdit
)

// AccountsModel lists accounts and changes their role.
type AccountsModel struct {
	CommonModel
	accounts *account.Service
	reads    *readmodel.Service

	state accountsState
	table table.Model
	rows  []*ledger.Account
	form  *huh.Form

	loading bool
	status  string

	// formRole is shared with the form across model copies.
	formRole *ledger.Role
}

func NewAccountsModel(accounts *account.Service, reads *readmodel.Service) AccountsModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 30},
			{Title: "Name", Width: 20},
			{Title: "Role", Width: 6},
			{Title: "Credits", Width: 8},
			{Title: "Listed", Width: 7},
			{Title: "Sold", Width: 5},
			{Title: "Joined", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return AccountsModel{
		accounts: accounts,
		reads:    reads,
		table:    t,
		loading:  true,
	}
}

func (m AccountsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m AccountsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadAccountsMsg:
		m.loading = false
		m.rows = msg.accounts
		m.refreshTable()

		return m, nil

	case roleSavedMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = accountsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()
	}

	if m.state == accountsStateEdit {
		return m.updateEdit(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "e":
			return m.enterEditMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m AccountsModel) selected() *ledger.Account {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return nil
	}

	return m.rows[idx]
}

func (m AccountsModel) enterEditMode() (tea.Model, tea.Cmd) {
	a := m.selected()
	if a == nil {
		return m, nil
	}

	m.formRole = new(a.Role)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ledger.Role]().
				Key("role").
				Title("Role for " + a.DisplayName).
				Options(
					huh.NewOption("User", ledger.RoleUser),
					huh.NewOption("Admin", ledger.RoleAdmin),
				).
				Value(m.formRole),
		),
	).WithWidth(40).WithShowHelp(false)

	m.state = accountsStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m AccountsModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = accountsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m *AccountsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, a := range m.rows {
		rows = append(rows, table.Row{
			a.ID,
			a.DisplayName,
			string(a.Role),
			strconv.FormatInt(a.Credits, 10),
			strconv.FormatInt(a.BooksListed, 10),
			strconv.FormatInt(a.BooksSold, 10),
			FormatDate(a.CreatedAt),
		})
	}

	m.table.SetRows(rows)
}

func (m AccountsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading accounts...")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render("e: change role | r: refresh | Esc: back"),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)

	if m.state == accountsStateEdit && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(44).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type loadAccountsMsg struct {
	accounts []*ledger.Account
}

func (m AccountsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return loadAccountsMsg{accounts: m.reads.ListAccounts(ctx, readmodel.DefaultAccountsLimit)}
	}
}

type roleSavedMsg struct {
	status string
	err    error
}

func (m AccountsModel) saveCmd() tea.Cmd {
	a := m.selected()
	if a == nil {
		return nil
	}

	id, role := a.ID, *m.formRole

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.accounts.SetRole(ctx, id, role); err != nil {
			return roleSavedMsg{err: err}
		}

		return roleSavedMsg{status: fmt.Sprintf("%s is now %s.", id, role)}
	}
}
