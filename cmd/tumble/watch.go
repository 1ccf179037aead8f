package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/SeongUk52/tumble"
)

const (
	canvasColumns = 80
	canvasRows    = 24
	speedHistory  = 240
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	canvasStyle = lipgloss.NewStyle().Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(40)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	staticStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	restingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	movingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type tickMsg time.Time

// watchCounters accumulates event totals across the session. It lives
// behind a pointer so the subscriptions survive bubbletea copying the
// model by value.
type watchCounters struct {
	impacts   int
	topples   int
	settles   int
	lastEvent string
}

type watchModel struct {
	world    *tumble.World
	cfg      tumble.Config
	counters *watchCounters

	paused  bool
	elapsed float64
	spawned int
	speeds  []float64
}

// spawn offsets cycle so towers lean a little without a seed flag
var spawnOffsets = []float64{0, 14, -20, 8, -12, 18}

func newWatchModel(cfg tumble.Config) (watchModel, error) {
	m := watchModel{
		cfg:    cfg,
		speeds: make([]float64, 0, speedHistory),
	}
	if err := m.rebuild(); err != nil {
		return watchModel{}, err
	}
	return m, nil
}

// rebuild resets the scene: fresh world, fresh counters, the starting
// blocks stacked above the floor center.
func (m *watchModel) rebuild() error {
	world, err := buildWorld(m.cfg)
	if err != nil {
		return err
	}

	counters := &watchCounters{}
	world.Events.Subscribe(tumble.COLLISION_ENTER, func(e tumble.Event) {
		counters.impacts++
		counters.lastEvent = "impact"
	})
	world.Events.Subscribe(tumble.BODY_TOPPLE, func(e tumble.Event) {
		counters.topples++
		counters.lastEvent = "topple"
	})
	world.Events.Subscribe(tumble.BODY_SETTLE, func(e tumble.Event) {
		counters.settles++
		counters.lastEvent = "settle"
	})
	world.Events.Subscribe(tumble.BODY_WAKE, func(e tumble.Event) {
		counters.lastEvent = "wake"
	})

	m.world = world
	m.counters = counters
	m.elapsed = 0
	m.spawned = 0
	m.speeds = m.speeds[:0]

	for i := 0; i < blocks; i++ {
		if err := m.spawnBlock(); err != nil {
			return err
		}
	}
	return nil
}

// spawnBlock drops a block above the floor center, offset by the next
// entry of the spawn cycle.
func (m *watchModel) spawnBlock() error {
	x := (sceneWidth-size)/2 + spawnOffsets[m.spawned%len(spawnOffsets)]
	y := -size - float64(m.spawned%3)*(size+8)
	m.spawned++
	return m.world.AddBody(makeBlock(x, y))
}

func (m watchModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(frameRate), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "b":
			if err := m.spawnBlock(); err != nil {
				m.counters.lastEvent = err.Error()
			}
		case "r":
			if err := m.rebuild(); err != nil {
				m.counters.lastEvent = err.Error()
			}
		}
	case tickMsg:
		if !m.paused {
			m.world.Step(m.cfg.FixedStep)
			m.elapsed += m.cfg.FixedStep

			maxSpeed := 0.0
			for _, block := range m.world.DynamicBodies() {
				if s := block.Velocity.Len(); s > maxSpeed {
					maxSpeed = s
				}
			}
			m.speeds = append(m.speeds, maxSpeed)
			if len(m.speeds) > speedHistory {
				m.speeds = m.speeds[1:]
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m watchModel) View() string {
	canvasView := canvasStyle.Render(m.renderScene())

	resting := 0
	dynamic := m.world.DynamicBodies()
	for _, block := range dynamic {
		if block.Resting {
			resting++
		}
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("TUMBLE") + "\n")
	status := "RUNNING"
	if m.paused {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.elapsed)) + "\n")
	s.WriteString(labelStyle.Render("Blocks") + valueStyle.Render(fmt.Sprintf("%d", len(dynamic))) + "\n")
	s.WriteString(labelStyle.Render("Resting") + valueStyle.Render(fmt.Sprintf("%d", resting)) + "\n")
	s.WriteString(labelStyle.Render("Impacts") + valueStyle.Render(fmt.Sprintf("%d", m.counters.impacts)) + "\n")
	s.WriteString(labelStyle.Render("Topples") + valueStyle.Render(fmt.Sprintf("%d", m.counters.topples)) + "\n")
	s.WriteString(labelStyle.Render("Settles") + valueStyle.Render(fmt.Sprintf("%d", m.counters.settles)) + "\n")
	if m.counters.lastEvent != "" {
		s.WriteString(labelStyle.Render("Last") + valueStyle.Render(m.counters.lastEvent) + "\n")
	}

	if len(m.speeds) > 1 {
		chart := asciigraph.Plot(m.speeds, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("max speed"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(helpStyle.Render("\nB:Drop SP:Pause R:Reset Q:Quit"))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

// renderScene rasterizes body boxes onto a rune grid. Statics draw as '#',
// resting blocks as '=', moving blocks as 'o'.
func (m watchModel) renderScene() string {
	var canvas [canvasRows][canvasColumns]rune
	for y := range canvas {
		for x := range canvas[y] {
			canvas[y][x] = ' '
		}
	}

	for _, body := range m.world.Bodies {
		glyph := 'o'
		switch {
		case body.IsStatic():
			glyph = '#'
		case body.Resting:
			glyph = '='
		}

		box := body.AABB()
		x0 := int(box.Min.X() / sceneWidth * canvasColumns)
		x1 := int(box.Max.X() / sceneWidth * canvasColumns)
		y0 := int(box.Min.Y() / sceneHeight * canvasRows)
		y1 := int(box.Max.Y() / sceneHeight * canvasRows)

		for y := y0; y <= y1; y++ {
			if y < 0 || y >= canvasRows {
				continue
			}
			for x := x0; x <= x1; x++ {
				if x < 0 || x >= canvasColumns {
					continue
				}
				canvas[y][x] = glyph
			}
		}
	}

	var s strings.Builder
	for y := range canvas {
		row := canvas[y][:]
		x := 0
		for x < len(row) {
			glyph := row[x]
			start := x
			for x < len(row) && row[x] == glyph {
				x++
			}
			run := string(row[start:x])
			if glyph == ' ' {
				s.WriteString(run)
			} else {
				s.WriteString(styleFor(glyph).Render(run))
			}
		}
		s.WriteByte('\n')
	}
	return s.String()
}

func styleFor(glyph rune) lipgloss.Style {
	switch glyph {
	case '#':
		return staticStyle
	case '=':
		return restingStyle
	}
	return movingStyle
}
