// Package dashboard is a terminal view of the controller: LED, buzzer,
// condition and readings against their bounds.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sensoralert/condition"
	"sensoralert/controller"
	"sensoralert/indicator"
)

var (
	colorDim    = lipgloss.Color("240")
	colorAccent = lipgloss.Color("214")
	colorBorder = lipgloss.Color("237")

	conditionColors = map[condition.Tag]lipgloss.Color{
		condition.Normal:      lipgloss.Color("42"),
		condition.BelowRange:  lipgloss.Color("39"),
		condition.AboveRange:  lipgloss.Color("196"),
		condition.SensorError: lipgloss.Color("201"),
	}
)

// SnapshotMsg carries a controller snapshot into the program.
type SnapshotMsg controller.Snapshot

type Model struct {
	deviceID string
	snap     controller.Snapshot
	width    int
	onQuit   func()
}

func New(deviceID string, onQuit func()) Model {
	return Model{deviceID: deviceID, onQuit: onQuit}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case SnapshotMsg:
		m.snap = controller.Snapshot(msg)
	}
	return m, nil
}

func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("sensoralert")
	id := lipgloss.NewStyle().Foreground(colorDim).Render(m.deviceID)
	header := title + "  " + id

	if !m.snap.Sampled {
		return header + "\n\n" + lipgloss.NewStyle().Foreground(colorDim).Render("waiting for first sample...") + "\n"
	}

	st := m.snap.Indicator
	cond := lipgloss.NewStyle().Bold(true).Foreground(conditionColors[m.snap.Tag]).Render(m.snap.Tag.Status())
	buzzer := "silent"
	if st.Volume != indicator.VolumeOff {
		buzzer = fmt.Sprintf("on (%d)", st.Volume)
	}
	lines := []string{
		fmt.Sprintf("condition  %s", cond),
		fmt.Sprintf("led        %s %s %s", indicator.Swatch(st.Color), st.Color, st.Mode),
		fmt.Sprintf("buzzer     %s", buzzer),
		fmt.Sprintf("failures   %d", m.snap.Failures),
		fmt.Sprintf("samples    %d, last %s", m.snap.Samples, m.snap.LastSample.Format(time.TimeOnly)),
	}
	if st.LinkFault {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("network link down"))
	}

	lines = append(lines, "", m.readingTable())
	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	help := lipgloss.NewStyle().Foreground(colorDim).Render("q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help) + "\n"
}

func (m Model) readingTable() string {
	dim := lipgloss.NewStyle().Foreground(colorDim)
	if !m.snap.Reading.Valid {
		return dim.Render("no valid reading")
	}
	names := m.snap.Reading.Quantities()
	sort.Strings(names)
	rows := []string{dim.Render(fmt.Sprintf("%-12s %9s %9s %9s", "quantity", "value", "low", "high"))}
	for _, q := range names {
		v := m.snap.Reading.Values[q]
		low, high := "-", "-"
		style := lipgloss.NewStyle()
		if b, ok := m.snap.Thresholds[q]; ok {
			low, high = fmt.Sprintf("%.1f", b.Low), fmt.Sprintf("%.1f", b.High)
			if v < b.Low {
				style = style.Foreground(conditionColors[condition.BelowRange])
			} else if v > b.High {
				style = style.Foreground(conditionColors[condition.AboveRange])
			}
		}
		rows = append(rows, fmt.Sprintf("%-12s %s %9s %9s", q, style.Render(fmt.Sprintf("%9.2f", v)), low, high))
	}
	return strings.Join(rows, "\n")
}

// Feeder forwards snapshots to a running program without blocking the
// control loop; a newer snapshot replaces one not yet delivered.
type Feeder struct {
	ch chan controller.Snapshot
}

func NewFeeder() *Feeder {
	return &Feeder{ch: make(chan controller.Snapshot, 1)}
}

func (f *Feeder) Observe(s controller.Snapshot) {
	select {
	case f.ch <- s:
	default:
		select {
		case <-f.ch:
		default:
		}
		select {
		case f.ch <- s:
		default:
		}
	}
}

// Run delivers snapshots to p until ctx is cancelled.
func (f *Feeder) Run(ctx context.Context, p *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-f.ch:
			p.Send(SnapshotMsg(s))
		}
	}
}
