package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/bookxchange/internal/approval"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

// PendingModel walks the moderation queue one listing at a time.
type PendingModel struct {
	CommonModel
	approvals *approval.Service
	reads     *readmodel.Service

	queue   []*ledger.Book
	current *ledger.Book
	total   int

	creditsInput textinput.Model

	status  string
	loading bool
}

func NewPendingModel(approvals *approval.Service, reads *readmodel.Service) PendingModel {
	ti := textinput.New()
	ti.Placeholder = "credits"
	ti.CharLimit = 6
	ti.Width = 10
	ti.Prompt = "Credits: "

	return PendingModel{
		approvals:    approvals,
		reads:        reads,
		creditsInput: ti,
		loading:      true,
	}
}

func (m PendingModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m PendingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadPendingMsg:
		m.loading = false
		m.queue = msg.books
		m.total = len(msg.books)

		if m.total == 0 {
			m.status = "No listings awaiting approval."
			return m, nil
		}

		m.next()

		return m, textinput.Blink

	case decisionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.next()
		m.status = msg.done + " " + m.status

		return m, textinput.Blink

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "enter":
			if m.current == nil {
				return m, nil
			}

			credits, err := strconv.ParseInt(strings.TrimSpace(m.creditsInput.Value()), 10, 64)
			if err != nil || credits <= 0 {
				m.status = "Credits must be a positive whole number."
				return m, nil
			}

			return m, m.approveCmd(m.current, credits)
		case "ctrl+r":
			if m.current == nil {
				return m, nil
			}

			return m, m.rejectCmd(m.current)
		case "ctrl+s":
			m.next()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.current != nil {
		m.creditsInput, cmd = m.creditsInput.Update(msg)
	}

	return m, cmd
}

func (m *PendingModel) next() {
	m.creditsInput.SetValue("")

	if len(m.queue) == 0 {
		m.current = nil
		m.status = "Queue done."
		m.creditsInput.Blur()

		return
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]
	m.status = fmt.Sprintf("Reviewing %d/%d", m.total-len(m.queue), m.total)
	m.creditsInput.Focus()
}

func (m PendingModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading pending listings...")
	}

	if m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	b := m.current
	info := fmt.Sprintf(
		"Title:     %s\nAuthors:   %s\nISBN:      %s\nCondition: %s\nSeller:    %s\nSubmitted: %s\n",
		activeStyle(b.Title),
		strings.Join(b.Authors, ", "),
		b.ISBN,
		b.Condition,
		b.SellerID,
		FormatDate(b.CreatedAt),
	)

	if b.Description != "" {
		info += "\n" + lipgloss.NewStyle().Faint(true).Width(60).Render(b.Description) + "\n"
	}

	return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
		"%s\n\n%s\n%s\n\n(Enter: approve | Ctrl+R: reject | Ctrl+S: skip | Esc: back)",
		m.status, info, m.creditsInput.View(),
	))
}

type loadPendingMsg struct {
	books []*ledger.Book
}

func (m PendingModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return loadPendingMsg{books: m.reads.ListPending(ctx)}
	}
}

type decisionMsg struct {
	done string
	err  error
}

func (m PendingModel) approveCmd(b *ledger.Book, credits int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.approvals.ApproveListing(ctx, b.ID, b.SellerID, credits); err != nil {
			return decisionMsg{err: err}
		}

		return decisionMsg{done: fmt.Sprintf("Approved %q for %s.", b.Title, FormatCredits(credits))}
	}
}

func (m PendingModel) rejectCmd(b *ledger.Book) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.approvals.RejectListing(ctx, b.ID); err != nil {
			return decisionMsg{err: err}
		}

		return decisionMsg{done: fmt.Sprintf("Rejected %q.", b.Title)}
	}
}
