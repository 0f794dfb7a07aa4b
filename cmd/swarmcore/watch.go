package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papyruslabs-ai/seshat-swarm/internal/coordinator"
)

var (
	watchAdminAddr string
	watchRefreshMs int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render a live table of drone state polled from a running coordinator's admin API",
	Long:  "watch polls a running coordinator's /drones endpoint on an interval and renders drone id, sigma, chi, battery, and staleness as a bubbletea table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newWatchModel(watchAdminAddr, time.Duration(watchRefreshMs)*time.Millisecond)
		p := tea.NewProgram(m, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchAdminAddr, "admin-addr", "http://localhost:8090", "Base URL of the admin API")
	watchCmd.Flags().IntVar(&watchRefreshMs, "refresh-ms", 500, "Polling interval in milliseconds")
}

type dronesFetchedMsg struct {
	drones []coordinator.DroneSnapshot
	err    error
}

type watchModel struct {
	table    table.Model
	adminURL string
	interval time.Duration
	lastErr  error
}

func newWatchModel(adminURL string, interval time.Duration) watchModel {
	columns := []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Pattern", Width: 16},
		{Title: "Sigma", Width: 10},
		{Title: "Chi", Width: 14},
		{Title: "Battery", Width: 8},
		{Title: "Stale", Width: 6},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(false), table.WithHeight(20))
	style := table.DefaultStyles()
	style.Header = style.Header.BorderStyle(lipgloss.NormalBorder()).Bold(true)
	t.SetStyles(style)

	return watchModel{table: t, adminURL: adminURL, interval: interval}
}

func (m watchModel) Init() tea.Cmd {
	return m.fetch()
}

func (m watchModel) fetch() tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Get(m.adminURL + "/drones")
		if err != nil {
			return dronesFetchedMsg{err: err}
		}
		defer resp.Body.Close()

		var drones []coordinator.DroneSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&drones); err != nil {
			return dronesFetchedMsg{err: err}
		}
		return dronesFetchedMsg{drones: drones}
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return m.fetch()() })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case dronesFetchedMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		} else {
			m.lastErr = nil
			rows := make([]table.Row, 0, len(msg.drones))
			for _, d := range msg.drones {
				stale := "no"
				if d.Stale {
					stale = "yes"
				}
				rows = append(rows, table.Row{
					d.ID,
					d.Pattern,
					d.Sigma.String(),
					d.Chi.String(),
					fmt.Sprintf("%.2f", d.Battery),
					stale,
				})
			}
			m.table.SetRows(rows)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.lastErr != nil {
		return fmt.Sprintf("swarmcore watch: %v\n\npress q to quit", m.lastErr)
	}
	return m.table.View() + "\n\npress q to quit"
}
