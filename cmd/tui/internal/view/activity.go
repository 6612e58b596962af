package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

type activityKind int

const (
	activityRecords activityKind = iota
	activityRequests
)

// ActivityModel shows recent transaction records or exchange requests.
type ActivityModel struct {
	CommonModel
	reads *readmodel.Service

	kind  activityKind
	table table.Model

	records  []*ledger.Record
	requests []*ledger.ExchangeRequest
	loading  bool
}

var (
	recordColumns = []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Book", Width: 30},
		{Title: "Buyer", Width: 16},
		{Title: "Seller", Width: 16},
		{Title: "Price", Width: 7},
		{Title: "Paid", Width: 7},
		{Title: "Received", Width: 9},
		{Title: "Fee", Width: 5},
		{Title: "Source", Width: 9},
	}
	requestColumns = []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Book", Width: 30},
		{Title: "Requester", Width: 16},
		{Title: "Owner", Width: 16},
		{Title: "Offer", Width: 7},
		{Title: "Status", Width: 10},
	}
)

func NewActivityModel(reads *readmodel.Service) ActivityModel {
	t := table.New(
		table.WithColumns(recordColumns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ActivityModel{reads: reads, table: t, loading: true}
}

func (m ActivityModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ActivityModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadActivityMsg:
		m.loading = false
		m.records = msg.records
		m.requests = msg.requests
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "v":
			m.kind = (m.kind + 1) % 2
			m.refreshTable()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *ActivityModel) refreshTable() {
	if m.kind == activityRequests {
		rows := make([]table.Row, 0, len(m.requests))
		for _, r := range m.requests {
			rows = append(rows, table.Row{
				FormatDate(r.CreatedAt),
				r.BookTitle,
				r.RequesterName,
				r.OwnerName,
				strconv.FormatInt(r.CreditsCost, 10),
				string(r.Status),
			})
		}

		// Rows are cleared first since every row must have a cell per column.
		m.table.SetRows(nil)
		m.table.SetColumns(requestColumns)
		m.table.SetRows(rows)

		return
	}

	rows := make([]table.Row, 0, len(m.records))
	for _, r := range m.records {
		rows = append(rows, table.Row{
			FormatDate(r.Timestamp),
			r.BookTitle,
			r.BuyerName,
			r.SellerName,
			strconv.FormatInt(r.BasePrice, 10),
			strconv.FormatInt(r.BuyerPaid, 10),
			strconv.FormatInt(r.SellerReceived, 10),
			strconv.FormatInt(r.PlatformFee, 10),
			string(r.Source),
		})
	}

	m.table.SetRows(nil)
	m.table.SetColumns(recordColumns)
	m.table.SetRows(rows)
}

func (m ActivityModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading activity...")
	}

	labels := []string{"Transactions", "Exchange Requests"}
	header := fmt.Sprintf("[v] Showing: %s | [r] refresh | Esc: back", activeStyle(labels[m.kind]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	))
}

type loadActivityMsg struct {
	records  []*ledger.Record
	requests []*ledger.ExchangeRequest
}

func (m ActivityModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return loadActivityMsg{
			records:  m.reads.RecentTransactions(ctx, readmodel.DefaultRecentRecords),
			requests: m.reads.RecentRequests(ctx, readmodel.DefaultRecentRequests),
		}
	}
}
