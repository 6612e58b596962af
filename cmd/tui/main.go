package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/bookxchange/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/bookxchange/internal/account"
	"github.com/MrJamesThe3rd/bookxchange/internal/approval"
	"github.com/MrJamesThe3rd/bookxchange/internal/config"
	"github.com/MrJamesThe3rd/bookxchange/internal/database"
	"github.com/MrJamesThe3rd/bookxchange/internal/export"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/bookxchange/internal/ledger/store"
	"github.com/MrJamesThe3rd/bookxchange/internal/logging"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

type model struct {
	approvalService *approval.Service
	accountService  *account.Service
	readService     *readmodel.Service
	exportService   *export.Service

	currentView View

	pendingView  view.PendingModel
	activityView view.ActivityModel
	statsView    view.StatsModel
	accountsView view.AccountsModel
	exportView   view.ExportModel
}

type View int

const (
	ViewMenu View = iota
	ViewPending
	ViewActivity
	ViewStats
	ViewAccounts
	ViewExport
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to stderr at warn and above.
	logger := logging.NewWithWriter(os.Stderr, "warn", cfg.App.Name+"-tui", cfg.App.Env)
	slog.SetDefault(logger)

	db, err := database.New(cfg.ConnectionString(), database.Options{
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.DB.Migrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	repo := ledgerStore.New(db)
	runner := ledger.NewRunner(repo,
		ledger.WithMaxAttempts(cfg.Ledger.MaxAttempts),
		ledger.WithBackoff(cfg.Ledger.Backoff),
		ledger.WithLogger(logger),
	)

	var (
		approvalSvc = approval.NewService(runner, logger, nil)
		accountSvc  = account.NewService(repo, logger)
		readSvc     = readmodel.NewService(repo, logger)
		exportSvc   = export.NewService(repo, logger)
	)

	return model{
		approvalService: approvalSvc,
		accountService:  accountSvc,
		readService:     readSvc,
		exportService:   exportSvc,
		currentView:     ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewPending
				m.pendingView = view.NewPendingModel(m.approvalService, m.readService)

				return m, m.pendingView.Init()
			case "2":
				m.currentView = ViewActivity
				m.activityView = view.NewActivityModel(m.readService)

				return m, m.activityView.Init()
			case "3":
				m.currentView = ViewStats
				m.statsView = view.NewStatsModel(m.readService)

				return m, m.statsView.Init()
			case "4":
				m.currentView = ViewAccounts
				m.accountsView = view.NewAccountsModel(m.accountService, m.readService)

				return m, m.accountsView.Init()
			case "5":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.exportService)

				return m, m.exportView.Init()
			}
		}

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewPending:
		var newModel tea.Model
		newModel, cmd = m.pendingView.Update(msg)
		m.pendingView = newModel.(view.PendingModel)
	case ViewActivity:
		var newModel tea.Model
		newModel, cmd = m.activityView.Update(msg)
		m.activityView = newModel.(view.ActivityModel)
	case ViewStats:
		var newModel tea.Model
		newModel, cmd = m.statsView.Update(msg)
		m.statsView = newModel.(view.StatsModel)
	case ViewAccounts:
		var newModel tea.Model
		newModel, cmd = m.accountsView.Update(msg)
		m.accountsView = newModel.(view.AccountsModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Bookxchange Moderation\n\n" +
				"1. Review Pending Listings\n" +
				"2. Recent Activity\n" +
				"3. Platform Stats\n" +
				"4. Accounts & Roles\n" +
				"5. Export Statement\n\n" +
				"q. Quit",
		)
	case ViewPending:
		return m.pendingView.View()
	case ViewActivity:
		return m.activityView.View()
	case ViewStats:
		return m.statsView.View()
	case ViewAccounts:
		return m.accountsView.View()
	case ViewExport:
		return m.exportView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
