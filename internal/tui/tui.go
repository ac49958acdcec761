package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/tableclient/internal/protocol"
	"github.com/lox/tableclient/internal/tablestate"
	"github.com/lox/tableclient/internal/view"
)

// Controller is the table state the TUI draws and the intents it submits
type Controller interface {
	State() tablestate.State
	OnChange(func(tablestate.State))
	SubmitLogin(name string) error
	SubmitAction(kind protocol.ActionKind, amount int) error
	SubmitStart() error
}

const (
	loginPlaceholder  = "Enter your name and press Enter"
	waitPlaceholder   = "Waiting for your turn ('start' to begin, 'quit' to exit)"
	actionPlaceholder = "fold, call, raise <amount>"
)

// TUIModel represents the Bubble Tea model for the table
type TUIModel struct {
	controller Controller
	logger     *log.Logger
	changed    chan struct{}

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	view        view.View
	gameLog     []string
	lastNotice  string
	feedback    string
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Dimensions
	width  int
	height int
}

// refreshMsg signals that the controller state changed
type refreshMsg struct{}

// NewTUIModel creates a TUI model that follows controller
func NewTUIModel(controller Controller, logger *log.Logger) *TUIModel {
	// Will be properly sized when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = loginPlaceholder
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &TUIModel{
		controller:  controller,
		logger:      logger.WithPrefix("tui"),
		changed:     make(chan struct{}, 1),
		logViewport: vp,
		actionInput: ti,
		gameLog:     []string{},
		focusedPane: 1, // Start with input focused
	}

	// Coalesce change notifications; the model always re-reads the latest state
	controller.OnChange(func(tablestate.State) {
		select {
		case m.changed <- struct{}{}:
		default:
		}
	})
	m.refresh()

	return m
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenForChanges())
}

// listenForChanges returns a command that waits for the next state change
func (m *TUIModel) listenForChanges() tea.Cmd {
	return func() tea.Msg {
		<-m.changed
		return refreshMsg{}
	}
}

// refresh re-renders the view from the controller's current state
func (m *TUIModel) refresh() {
	m.view = view.Render(m.controller.State())

	if n := m.view.Notice; n != nil {
		if n.Text != m.lastNotice {
			m.AddLogEntry(n.Text)
			m.lastNotice = n.Text
		}
	} else {
		m.lastNotice = ""
	}

	switch {
	case m.view.NeedLogin:
		m.actionInput.Placeholder = loginPlaceholder
	case m.view.ShowControls:
		m.actionInput.Placeholder = actionPlaceholder
	default:
		m.actionInput.Placeholder = waitPlaceholder
	}
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case refreshMsg:
		m.refresh()
		return m, m.listenForChanges()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if cmd := m.processInput(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd

	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// processInput turns a line of input into an intent. Before login the line is
// the player name; afterwards it is a command.
func (m *TUIModel) processInput(input string) tea.Cmd {
	m.feedback = ""

	if m.view.NeedLogin {
		if err := m.controller.SubmitLogin(input); err != nil {
			m.logger.Debug("Login rejected", "error", err)
		}
		m.refresh()
		return nil
	}

	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return nil
	}
	command, args := parts[0], parts[1:]

	switch command {
	case "q", "quit", "exit":
		m.quitting = true
		return tea.Quit
	case "s", "start":
		if err := m.controller.SubmitStart(); err != nil {
			m.feedback = "Only the first player can start, once two players have joined"
		}
		m.refresh()
		return nil
	}

	kind, ok := protocol.ParseActionKind(command)
	if !ok {
		m.feedback = fmt.Sprintf("Unknown command: %s", command)
		return nil
	}

	amount := 0
	if kind == protocol.ActionRaise {
		amount = m.view.Raise.Suggested
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				m.feedback = fmt.Sprintf("Invalid amount: %s", args[0])
				return nil
			}
			amount = n
		}
	}

	err := m.controller.SubmitAction(kind, amount)
	if errors.Is(err, tablestate.ErrNotYourTurn) {
		m.feedback = "Not your turn"
	}
	m.refresh()
	return nil
}

// View renders the TUI
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1)).
		Render(actionContent)

	paneHeight := max(m.height-actionHeight-4, 1)

	tableContent := m.renderTablePane()
	tableWidth := max(lipgloss.Width(tableContent), 40)
	tablePane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(tableWidth).
		Height(paneHeight).
		Render(tableContent)

	logWidth := max(m.width-tableWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, tablePane, logPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

// renderTablePane draws connection status, pot, board, and seats
func (m *TUIModel) renderTablePane() string {
	var content strings.Builder
	v := m.view

	status := SuccessStyle.Render(v.Status)
	if v.StatusAlert {
		status = ErrorStyle.Render(v.Status)
	}
	content.WriteString(HeaderStyle.Render(" Table ") + " " + status)
	if v.PlayerName != "" {
		content.WriteString(InfoStyle.Render(" as " + v.PlayerName))
	}
	content.WriteString("\n\n")

	if v.GameUnavailable {
		content.WriteString(WarningStyle.Render("Game not available"))
		content.WriteString("\n\n")
	}

	if v.ShowLobby || (!v.HasTable && len(v.Lobby) > 0) {
		content.WriteString(m.renderLobby())
		return content.String()
	}

	if !v.HasTable {
		content.WriteString(InfoStyle.Render("Waiting for game..."))
		return content.String()
	}

	content.WriteString(PotStyle.Render(fmt.Sprintf("Pot: $%d", v.Pot)))
	content.WriteString("\n")
	content.WriteString(m.renderBoard())
	content.WriteString("\n\n")

	for _, seat := range v.Seats {
		content.WriteString(m.renderSeat(seat))
		content.WriteString("\n")
	}

	return content.String()
}

func (m *TUIModel) renderLobby() string {
	var content strings.Builder
	content.WriteString(HandInfoStyle.Render("Lobby"))
	content.WriteString("\n")
	if len(m.view.Lobby) == 0 {
		content.WriteString(InfoStyle.Render("  No players yet"))
		content.WriteString("\n")
	}
	for _, p := range m.view.Lobby {
		line := "  " + p.Name
		if p.IsHost {
			line += " (host)"
		}
		if p.Ready {
			line += " ✓"
		}
		if p.IsMe {
			line = ActiveSeatStyle.Render(line)
		} else {
			line = SeatStyle.Render(line)
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	if m.view.ShowStart {
		content.WriteString("\n")
		content.WriteString(ActionsStyle.Render("Type 'start' to begin the game"))
		content.WriteString("\n")
	}
	return content.String()
}

// renderBoard draws the five community card slots
func (m *TUIModel) renderBoard() string {
	slots := make([]string, len(m.view.Board))
	for i, slot := range m.view.Board {
		if slot.Empty {
			slots[i] = EmptySlotStyle.Render("[  ]")
		} else {
			slots[i] = m.formatCard(slot.Card)
		}
	}
	return "Board: " + strings.Join(slots, " ")
}

func (m *TUIModel) renderSeat(seat view.Seat) string {
	marker := "  "
	style := SeatStyle
	if seat.Active {
		marker = "▶ "
		style = ActiveSeatStyle
	}

	line := style.Render(fmt.Sprintf("%s%-12s $%-6d", marker, seat.Name, seat.Chips))
	if seat.Dealer {
		line += " " + DealerStyle.Render(" D ")
	}
	if seat.Bet > 0 {
		line += " " + WarningStyle.Render(fmt.Sprintf("bet $%d", seat.Bet))
	}
	if cards := m.formatCards(seat.Cards); cards != "" {
		line += " " + cards
	}
	if seat.IsMe {
		line += InfoStyle.Render(" (you)")
	}
	return line
}

// renderActionPane renders the notice line, available actions, and input
func (m *TUIModel) renderActionPane() string {
	var content strings.Builder
	v := m.view

	if v.Notice != nil {
		if v.Notice.IsError {
			content.WriteString(ErrorStyle.Render(v.Notice.Text))
		} else {
			content.WriteString(WarningStyle.Render(v.Notice.Text))
		}
		content.WriteString("\n")
	}

	switch {
	case v.NeedLogin:
		content.WriteString(HandInfoStyle.Render("Join the table"))
	case v.ShowControls:
		content.WriteString(m.renderAvailableActions())
	default:
		content.WriteString(HandInfoStyle.Render("Waiting..."))
	}
	content.WriteString("\n")

	if m.feedback != "" {
		content.WriteString(ErrorStyle.Render(m.feedback))
		content.WriteString("\n")
	}

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	help := "Tab to scroll log • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, Home/End, Tab to input"
	} else if v.ShowControls {
		help = "Tab to scroll log • Enter to submit • Ctrl+C to quit"
	}
	content.WriteString(InfoStyle.Render(help))

	return content.String()
}

// renderAvailableActions renders the action buttons and raise range
func (m *TUIModel) renderAvailableActions() string {
	var actions []string

	for _, action := range m.view.Actions {
		switch action {
		case protocol.ActionFold:
			actions = append(actions, ErrorStyle.Render("[fold]"))
		case protocol.ActionCall:
			actions = append(actions, SuccessStyle.Render("[call]"))
		case protocol.ActionRaise:
			r := m.view.Raise
			if r.Max > 0 {
				actions = append(actions, WarningStyle.Render(fmt.Sprintf("[raise $%d-$%d, default $%d]", r.Min, r.Max, r.Suggested)))
			} else {
				actions = append(actions, WarningStyle.Render("[raise <amount>]"))
			}
		}
	}

	return ActionsStyle.Render("Your turn: ") + strings.Join(actions, " ")
}

func (m *TUIModel) formatCard(card protocol.Card) string {
	if card.IsRed() {
		return RedCardStyle.Render(card.String())
	}
	return BlackCardStyle.Render(card.String())
}

// formatCards formats cards with colors
func (m *TUIModel) formatCards(cards []protocol.Card) string {
	if len(cards) == 0 {
		return ""
	}

	formatted := make([]string, len(cards))
	for i, card := range cards {
		formatted[i] = m.formatCard(card)
	}

	return "[" + strings.Join(formatted, " ") + "]"
}

// AddLogEntry adds an entry to the message log
func (m *TUIModel) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))

	// Only call GotoBottom if viewport has valid dimensions
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns a copy of the message log
func (m *TUIModel) Log() []string {
	result := make([]string, len(m.gameLog))
	copy(result, m.gameLog)
	return result
}
