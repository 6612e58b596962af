package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/bookxchange/internal/export"
)

type exportState int

const (
	exportStateForm exportState = iota
	exportStateTimeframe
	exportStateExporting
	exportStateResult
)

// exportInput is shared with the form across model copies.
type exportInput struct {
	accountID string
	path      string
}

// ExportModel writes a user's credit statement, summary and covers to disk.
type ExportModel struct {
	CommonModel
	exportService *export.Service

	state           exportState
	err             error
	form            *huh.Form
	input           *exportInput
	timeframePicker TimeframePicker
	period          string

	spinner spinner.Model
	summary string
}

func NewExportModel(svc *export.Service) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ExportModel{
		exportService:   svc,
		state:           exportStateForm,
		input:           &exportInput{path: "./statements"},
		timeframePicker: NewTimeframePicker(),
		spinner:         s,
	}
	m.form = m.buildForm()

	return m
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if sel, ok := msg.(TimeframeSelectedMsg); ok {
		m.state = exportStateExporting
		m.period = sel.Label
		m.err = nil

		return m, tea.Batch(m.spinner.Tick, m.runExportCmd(sel.Filter))
	}

	switch m.state {
	case exportStateForm:
		return m.updateForm(msg)
	case exportStateTimeframe:
		return m.updateTimeframe(msg)
	case exportStateExporting:
		return m.updateExporting(msg)
	case exportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = exportStateTimeframe

	return m, nil
}

func (m ExportModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			m.state = exportStateForm
			m.form = m.buildForm()

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m ExportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(exportResultMsg); ok {
		m.state = exportStateResult
		m.err = result.err
		m.summary = result.body

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ExportModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("account").
				Title("Account ID").
				Value(&m.input.accountID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("account id cannot be empty")
					}

					return nil
				}),
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./statements").
				Value(&m.input.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	switch m.state {
	case exportStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case exportStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case exportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Building statement and downloading covers...", m.spinner.View()),
		)

	case exportStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
		}

		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")).
			Render(fmt.Sprintf("Statement for %s (%s) written to %s", m.input.accountID, m.period, m.input.path))

		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", m.summary, "", "(Esc to back)"),
		)
	}

	return ""
}

type exportResultMsg struct {
	body string
	err  error
}

const exportTimeout = 2 * time.Minute

func (m ExportModel) runExportCmd(f export.Filter) tea.Cmd {
	accountID := strings.TrimSpace(m.input.accountID)
	dir := m.input.path

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		lines, err := m.exportService.Statement(ctx, accountID, f)
		if err != nil {
			return exportResultMsg{err: err}
		}

		if err := m.exportService.DownloadCovers(ctx, lines, filepath.Join(dir, "covers")); err != nil {
			return exportResultMsg{err: err}
		}

		out, err := os.Create(filepath.Join(dir, "statement.csv"))
		if err != nil {
			return exportResultMsg{err: err}
		}
		defer out.Close()

		if err := export.WriteCSV(out, lines); err != nil {
			return exportResultMsg{err: err}
		}

		body := export.Summary(lines)
		if err := os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(body), 0o644); err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{body: body}
	}
}
