// Package viz renders a live terminal view of a running Bloch simulation.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/blochsim/internal/bloch"
	"github.com/san-kum/blochsim/internal/pulse"
	"github.com/san-kum/blochsim/internal/spin"
)

const (
	graphWidth   = 70
	graphHeight  = 10
	stepsPerTick = 8
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model steps a cube through a pulse frame by frame, plotting the batch
// averages of Mz and |Mxy| as they evolve.
type Model struct {
	params  *bloch.StepParams
	beff    []float64
	nT      int
	spins   int
	cur     []float64
	scratch []float64
	bt      []float64
	t       int
	mz      []float64
	mxy     []float64
	desc    string
	dt      float64
}

// NewModel prepares a live view of pl applied to cube. The cube's own
// state is left untouched; the view steps a private copy.
func NewModel(cube *spin.Cube, pl *pulse.Pulse) (Model, error) {
	beff, err := cube.Beff(pl, nil)
	if err != nil {
		return Model{}, err
	}
	pop := cube.Population()
	params, err := bloch.NewStepParams(pop.Batch(), pop.NM(), bloch.Options{
		T1:    pop.T1Compact(),
		T2:    pop.T2Compact(),
		Gamma: pop.GammaCompact(),
		Dt:    []float64{pl.Dt},
	})
	if err != nil {
		return Model{}, err
	}
	spins := pop.Batch() * pop.NM()
	m := Model{
		params:  params,
		beff:    beff,
		nT:      pl.NT(),
		spins:   spins,
		cur:     append([]float64(nil), pop.MCompact()...),
		scratch: make([]float64, spins*3),
		bt:      make([]float64, spins*3),
		desc:    pl.Desc,
		dt:      pl.Dt,
	}
	m.observe()
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(30*time.Millisecond, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case TickMsg:
		for i := 0; i < stepsPerTick && m.t < m.nT; i++ {
			bloch.GatherField(m.bt, m.beff, m.spins, m.nT, m.t)
			m.cur, m.scratch, _ = bloch.Step(m.cur, m.scratch, m.bt, m.params)
			m.t++
			m.observe()
		}
		if m.t >= m.nT {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

// observe appends the batch averages of Mz and |Mxy| to the histories.
func (m *Model) observe() {
	var mz, mxy float64
	for i := 0; i < m.spins; i++ {
		x, y := m.cur[i*3], m.cur[i*3+1]
		mxy += math.Hypot(x, y)
		mz += m.cur[i*3+2]
	}
	m.mz = append(m.mz, mz/float64(m.spins))
	m.mxy = append(m.mxy, mxy/float64(m.spins))
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("blochsim live") + "\n")
	b.WriteString(labelStyle.Render("pulse") + valueStyle.Render(m.desc) + "\n")
	b.WriteString(labelStyle.Render("step") + valueStyle.Render(fmt.Sprintf("%d / %d", m.t, m.nT)) + "\n")
	b.WriteString(labelStyle.Render("time") + valueStyle.Render(fmt.Sprintf("%.3f ms", float64(m.t)*m.dt*1e3)) + "\n")

	b.WriteString(graphStyle.Render(asciigraph.Plot(m.mz,
		asciigraph.Height(graphHeight), asciigraph.Width(graphWidth),
		asciigraph.Caption("mean Mz"))))
	b.WriteString("\n")
	b.WriteString(graphStyle.Render(asciigraph.Plot(m.mxy,
		asciigraph.Height(graphHeight), asciigraph.Width(graphWidth),
		asciigraph.Caption("mean |Mxy|"))))
	b.WriteString(helpStyle.Render("q to quit"))
	return b.String()
}
