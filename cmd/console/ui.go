package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

const placeholderText = "Optional dialogue summary for the next decision..."

// Simulated game time advances this much per decision step.
const stepInterval = 5 * time.Minute

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	reasoningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	driverStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	emotionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type decisionMsg struct {
	decision *npc.MovementDecision
	raw      []byte
	err      error
}

type memoryMsg struct {
	record *npc.MemoryRecord
	err    error
}

type memoryClearedMsg struct{ err error }

// ConsoleUI is the BubbleTea model that runs the UI.
type ConsoleUI struct {
	config *ConsoleConfig
	api    *apiClient

	viewport viewport.Model
	textarea textarea.Model
	ready    bool
	width    int
	height   int

	loading bool
	log     []string
	lastRaw []byte

	// Simulated scene state.
	position  npc.Position
	gameClock time.Time
	boundary  npc.SceneBoundary
	landmarks []npc.Landmark
	entities  []npc.Entity
}

func NewConsoleUI(cfg *ConsoleConfig, api *apiClient) *ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = placeholderText
	ta.SetHeight(3)
	ta.Focus()

	return &ConsoleUI{
		config:    cfg,
		api:       api,
		textarea:  ta,
		position:  npc.Position{X: 3, Y: 3},
		gameClock: time.Now().UTC(),
		boundary:  npc.SceneBoundary{MinX: 0, MaxX: 12, MinY: 0, MaxY: 10},
		landmarks: []npc.Landmark{
			{Name: "Kitchen", TypeTag: "kitchen", Position: npc.Position{X: 2, Y: 8}},
			{Name: "Living Room", TypeTag: "living_room", Position: npc.Position{X: 6, Y: 8}},
			{
				Name: "WC", TypeTag: npc.LandmarkBathroom,
				Position:  npc.Position{X: 10, Y: 8},
				Entrances: []npc.Position{{X: 9, Y: 7}},
			},
			{
				Name: "Bedroom", TypeTag: npc.LandmarkBedroom,
				OwnerID: cfg.NPCID, Position: npc.Position{X: 10, Y: 2},
			},
		},
		entities: []npc.Entity{
			{ID: "npc_ken", Name: "Ken", X: 6, Y: 7, EntityType: "npc"},
		},
	}
}

func (m *ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m *ConsoleUI) stepCmd() tea.Cmd {
	req := &npc.MovementRequest{
		NPCID:           m.config.NPCID,
		CurrentPosition: m.position,
		GameTime: npc.GameTime{
			Timestamp: m.gameClock,
			TimeOfDay: timeOfDay(m.gameClock),
		},
		NearbyEntities:  m.entities,
		Landmarks:       m.landmarks,
		Boundary:        m.boundary,
		DialogueSummary: strings.TrimSpace(m.textarea.Value()),
	}
	return func() tea.Msg {
		decision, raw, err := m.api.think(req)
		return decisionMsg{decision: decision, raw: raw, err: err}
	}
}

func (m *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := m.height - m.textarea.Height() - 5
		if !m.ready {
			m.viewport = viewport.New(m.width-2, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width - 2
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(m.width - 2)
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if !m.loading {
				m.loading = true
				m.appendLog(loadingStyle.Render(fmt.Sprintf("[%s] thinking...", m.config.NPCID)))
				cmds = append(cmds, m.stepCmd())
			}
		case "ctrl+y":
			if len(m.lastRaw) > 0 {
				if err := clipboard.WriteAll(string(m.lastRaw)); err != nil {
					m.appendLog(errorStyle.Render("clipboard: " + err.Error()))
				} else {
					m.appendLog(helpStyle.Render("copied last decision JSON to clipboard"))
				}
			}
		case "ctrl+r":
			if !m.loading {
				cmds = append(cmds, func() tea.Msg {
					record, err := m.api.getMemory(m.config.NPCID)
					return memoryMsg{record: record, err: err}
				})
			}
		case "ctrl+x":
			if !m.loading {
				cmds = append(cmds, func() tea.Msg {
					return memoryClearedMsg{err: m.api.clearMemory(m.config.NPCID)}
				})
			}
		}

	case decisionMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLog(errorStyle.Render("error: " + msg.err.Error()))
			break
		}
		m.lastRaw = msg.raw
		m.position = msg.decision.Target
		m.gameClock = m.gameClock.Add(stepInterval)
		m.textarea.Reset()
		m.appendDecision(msg.decision)

	case memoryMsg:
		if msg.err != nil {
			m.appendLog(errorStyle.Render("memory: " + msg.err.Error()))
			break
		}
		m.appendMemory(msg.record)

	case memoryClearedMsg:
		if msg.err != nil {
			m.appendLog(errorStyle.Render("clear: " + msg.err.Error()))
		} else {
			m.appendLog(helpStyle.Render("memory cleared for " + m.config.NPCID))
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *ConsoleUI) appendDecision(d *npc.MovementDecision) {
	var drivers []string
	for _, flag := range npc.DriverFlags {
		if d.Drivers[flag] {
			drivers = append(drivers, flag)
		}
	}
	lines := []string{
		actionStyle.Render(fmt.Sprintf("%s -> (%.1f, %.1f): %s", d.Name, d.Target.X, d.Target.Y, d.ChosenAction)),
		reasoningStyle.Render("  " + strings.TrimSpace(d.Reasoning)),
	}
	if len(drivers) > 0 {
		lines = append(lines, driverStyle.Render("  drivers: "+strings.Join(drivers, ", ")))
	}
	if d.EmotionalState != nil {
		lines = append(lines, emotionStyle.Render(fmt.Sprintf("  emotion: %s (%.1f)",
			d.EmotionalState.PrimaryEmotion, d.EmotionalState.Intensity)))
	}
	lines = append(lines, helpStyle.Render(fmt.Sprintf("  %.0f ms", d.ProcessingTimeMS)))
	m.appendLog(strings.Join(lines, "\n"))
}

func (m *ConsoleUI) appendMemory(r *npc.MemoryRecord) {
	lines := []string{
		titleStyle.Render("memory for " + r.NPCID),
		fmt.Sprintf("  emotion: %s (%.1f)", r.EmotionalState.PrimaryEmotion, r.EmotionalState.Intensity),
		fmt.Sprintf("  visits: %d, long-term memories: %d", len(r.LocationHistory), len(r.LongTermMemories)),
	}
	for _, mem := range r.RecentLongTermMemories(3) {
		lines = append(lines, "  - "+mem.Content)
	}
	m.appendLog(strings.Join(lines, "\n"))
}

func (m *ConsoleUI) appendLog(entry string) {
	m.log = append(m.log, entry)
	m.refreshViewport()
}

func (m *ConsoleUI) refreshViewport() {
	if !m.ready {
		return
	}
	content := strings.Join(m.log, "\n\n")
	m.viewport.SetContent(wordwrap.String(content, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m *ConsoleUI) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := titleStyle.Render(fmt.Sprintf("NPC Engine Console - %s at (%.1f, %.1f), %s",
		m.config.NPCID, m.position.X, m.position.Y, timeOfDay(m.gameClock)))
	help := helpStyle.Render("enter: step  ctrl+r: memory  ctrl+x: clear  ctrl+y: copy json  esc: quit")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, m.viewport.View(), m.textarea.View(), help)
}

func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 6:
		return "night"
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}
