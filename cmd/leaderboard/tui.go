package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/napolitain/solver-mutations/internal/ranking"
)

const defaultListHeight = 20

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	profitStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detailStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
)

// model is the interactive leaderboard browser
type model struct {
	board  *ranking.Leaderboard
	cursor int
	offset int
	height int
	detail bool
}

func newModel(board *ranking.Leaderboard) model {
	return model{board: board, height: defaultListHeight}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// title, header and help lines
		m.height = max(1, msg.Height-4)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if !m.detail {
				return m, tea.Quit
			}
			m.detail = false
		case "enter", " ", "space":
			if len(m.board.Entries) > 0 {
				m.detail = !m.detail
			}
		case "up", "k":
			m.cursor--
		case "down", "j":
			m.cursor++
		case "pgup":
			m.cursor -= m.height
		case "pgdown":
			m.cursor += m.height
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = len(m.board.Entries) - 1
		}
	}

	m.cursor = min(max(m.cursor, 0), max(len(m.board.Entries)-1, 0))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	return m, nil
}

func (m model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Greenhouse leaderboard · %s mode · %d entries",
		m.board.Config.Mode, len(m.board.Entries))))
	sb.WriteString("\n")

	if len(m.board.Entries) == 0 {
		sb.WriteString("\nNo mutation scored above zero.\n")
		sb.WriteString(helpStyle.Render("q quit"))
		return sb.String()
	}

	if m.detail {
		sb.WriteString(detailStyle.Render(formatBreakdown(m.board.Entries[m.cursor])))
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("enter/esc back · q quit"))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%4s  %-22s %14s %14s %10s\n", "#", "Mutation", "Profit/h", "Setup", "Time"))
	end := min(m.offset+m.height, len(m.board.Entries))
	for i := m.offset; i < end; i++ {
		e := m.board.Entries[i]
		profit := formatCoins(e.ProfitPerHour)
		if e.ProfitPerHour < 0 {
			profit = lossStyle.Render(fmt.Sprintf("%14s", profit))
		} else {
			profit = profitStyle.Render(fmt.Sprintf("%14s", profit))
		}
		line := fmt.Sprintf("%4d  %-22s %s %14s %10s", i+1, e.Mutation, profit, formatCoins(e.SetupCost), formatHours(e.EstimatedTimeHours))
		if i == m.cursor {
			line = selectedStyle.Render(fmt.Sprintf("%4d  %-22s %14s %14s %10s", i+1, e.Mutation,
				formatCoins(e.ProfitPerHour), formatCoins(e.SetupCost), formatHours(e.EstimatedTimeHours)))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render("↑/↓ move · enter details · q quit"))
	return sb.String()
}

func runInteractive(board *ranking.Leaderboard) error {
	_, err := tea.NewProgram(newModel(board), tea.WithAltScreen()).Run()
	return err
}
