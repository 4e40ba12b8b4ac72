package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/uitmedia/framefusion/pkg/display"
)

var (
	modeBadgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(colorCyan).Padding(0, 1)
	countdownStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	errorStyle     = lipgloss.NewStyle().Foreground(colorRed)
)

// snapshotMsg carries a snapshot from the feed into the program.
type snapshotMsg display.Snapshot

// feedClosedMsg reports that the feed ended.
type feedClosedMsg struct{ err error }

// GuestModel is the bubbletea model for following a guest screen from a
// terminal.
type GuestModel struct {
	Source   string
	Snapshot display.Snapshot
	Received int
	Err      error
	Width    int
}

// NewGuestModel creates a model for the feed at source.
func NewGuestModel(source string) GuestModel {
	return GuestModel{Source: source, Width: 80}
}

func (m GuestModel) Init() tea.Cmd {
	return nil
}

func (m GuestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
	case snapshotMsg:
		// Snapshots can arrive out of order from Redis; keep the newest.
		if m.Received == 0 || msg.Seq >= m.Snapshot.Seq {
			m.Snapshot = display.Snapshot(msg)
		}
		m.Received++
	case feedClosedMsg:
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m GuestModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Guest Screen"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.Source))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	if m.Err != nil {
		b.WriteString(errorStyle.Render("feed closed: " + m.Err.Error()))
		b.WriteString("\n")
	}
	if m.Received == 0 {
		b.WriteString(StyleDim.Render("waiting for the booth..."))
		b.WriteString("\n")
		return b.String()
	}

	s := m.Snapshot
	b.WriteString(modeBadgeStyle.Render(string(s.Mode)))
	b.WriteString(" ")
	switch s.Mode {
	case display.ModeCountdown:
		b.WriteString(countdownStyle.Render(strconv.Itoa(s.Count)))
	case display.ModeDelivery:
		b.WriteString(StyleValue.Render(s.QR))
	default:
		b.WriteString(StyleDim.Render(s.Summary()))
	}
	b.WriteString("\n\n")

	if s.FrameSrc != "" {
		b.WriteString(styleKey.Render("frame"))
		b.WriteString(" ")
		b.WriteString(StyleValue.Render(fmt.Sprintf("%s (%.0f%%)", shortSource(s.FrameSrc), s.FrameOpacity*100)))
		b.WriteString("\n")
	}
	if len(s.Photos) > 0 {
		b.WriteString(photoTable(s))
		b.WriteString("\n")
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("#%d · %d updates · %s", s.Seq, m.Received, s.At.Format("15:04:05"))))
	return b.String()
}

// photoTable lists the photos bottom to top.
func photoTable(s display.Snapshot) string {
	rows := make([][]string, len(s.Photos))
	for i, p := range s.Photos {
		t := p.Transform
		rows[i] = []string{
			strconv.Itoa(i + 1),
			shortSource(p.Src),
			fmt.Sprintf("%.2f,%.2f", t.X, t.Y),
			fmt.Sprintf("%.2fx%.2f", t.Width, t.Height),
			fmt.Sprintf("%.0f°", t.Rotation),
			fmt.Sprintf("%.2fx", p.Crop.Scale),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Photo", "Center", "Size", "Rotation", "Zoom").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return StyleNumber
			}
			return StyleValue
		}).
		Render()
}

// shortSource trims paths to their base name and elides inline data.
func shortSource(src string) string {
	switch {
	case strings.HasPrefix(src, "data:"):
		return "inline image"
	case strings.HasPrefix(src, "mem:"):
		return "upload " + strings.TrimPrefix(src, "mem:")[:min(8, len(src)-4)]
	case strings.Contains(src, "://"):
		return src
	}
	return filepath.Base(src)
}
