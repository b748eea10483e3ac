package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/skilltreelabs/skilltree/pkg/anim"
	"github.com/skilltreelabs/skilltree/pkg/camera"
	"github.com/skilltreelabs/skilltree/pkg/errors"
	"github.com/skilltreelabs/skilltree/pkg/focus"
	"github.com/skilltreelabs/skilltree/pkg/input"
)

// Frame cadence for the animation scheduler.
const frameInterval = 33 * time.Millisecond

// Key gesture tuning.
const (
	panStep    = 40.0
	zoomInStep = 1.2
)

// viewCommand creates the view command running the interactive canvas.
func (c *CLI) viewCommand() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive graph canvas",
		Long: `Open the knowledge graph in an interactive terminal canvas.

Navigate with tab to cycle nodes, enter to drill into a group, and esc to
drill back out. Groups render in brackets; the prerequisite-chain highlight
dims everything the selected node does not build on.

By default the canvas runs against the built-in seed dataset. With --remote
it fetches scopes from the configured gateway instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fetch, err := c.newFetcher(cfg, remote)
			if err != nil {
				return err
			}

			sched := anim.NewScheduler()
			orch, err := focus.New(sched, fetch, mountTermSurface, focus.Options{
				ViewportW: float64(cfg.View.Width) * cellW,
				ViewportH: float64(cfg.View.Height) * cellH,
			})
			if err != nil {
				return err
			}
			if err := orch.Init(cmd.Context()); err != nil {
				return err
			}

			m := newViewModel(cmd.Context(), sched, orch, cfg.View.Width, cfg.View.Height)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "fetch scopes from the configured gateway")
	return cmd
}

// =============================================================================
// Terminal Surface
// =============================================================================

// termSurface is the canvas-side mount for a layer. The terminal renders
// synchronously from engine state each frame, so a surface attaches
// immediately and only tracks liveness and opacity.
type termSurface struct {
	attached chan struct{}
	alive    bool
}

func mountTermSurface(*focus.Layer) focus.Surface {
	s := &termSurface{attached: make(chan struct{}), alive: true}
	close(s.attached)
	return s
}

func (s *termSurface) Attached() <-chan struct{} { return s.attached }
func (s *termSurface) Alive() bool               { return s.alive }
func (s *termSurface) SetOpacity(float64)        {}
func (s *termSurface) ApplyCamera(camera.State)  {}
func (s *termSurface) Teardown()                 { s.alive = false }

// =============================================================================
// Model
// =============================================================================

type tickMsg time.Time

type viewModel struct {
	ctx   context.Context
	sched *anim.Scheduler
	orch  *focus.Orchestrator
	disp  *input.Dispatcher

	width, height int
	cursor        int
	errLine       string
}

func newViewModel(ctx context.Context, sched *anim.Scheduler, orch *focus.Orchestrator, w, h int) *viewModel {
	m := &viewModel{ctx: ctx, sched: sched, orch: orch, width: w, height: h, cursor: -1}
	m.disp, _ = input.New(orch, sched, input.Options{
		OnError: func(err error) {
			m.errLine = fmt.Sprintf("%s: %s", errors.GetCode(err), errors.UserMessage(err))
		},
	})
	return m
}

func (m *viewModel) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.sched.Step(time.Time(msg))
		return m, tick()

	case tea.WindowSizeMsg:
		if msg.Width > 0 && msg.Height > 3 {
			m.width, m.height = msg.Width, msg.Height-2
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *viewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errLine = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab", "right":
		m.cycleSelection(1)
	case "shift+tab", "left":
		m.cycleSelection(-1)

	case "enter":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionEnter})
		m.cursor = -1
	case "esc", "backspace":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionExit})
		m.cursor = -1

	case "h":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionToggleHighlight})
	case "r":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionToggleRecommended})
	case "t":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionToggleRelated})

	case "w", "up":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionPan, DY: panStep})
	case "s", "down":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionPan, DY: -panStep})
	case "a":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionPan, DX: panStep})
	case "d":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionPan, DX: -panStep})

	case "+", "=":
		m.dispatchZoom(zoomInStep)
	case "-", "_":
		m.dispatchZoom(1 / zoomInStep)

	case "x":
		m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionSelect})
		m.cursor = -1
	}
	return m, nil
}

func (m *viewModel) dispatchZoom(factor float64) {
	m.disp.Dispatch(m.ctx, input.Event{
		Action:  input.ActionZoom,
		Factor:  factor,
		AnchorX: float64(m.width) * cellW / 2,
		AnchorY: float64(m.height) * cellH / 2,
	})
}

// cycleSelection steps the cursor through the current layer's nodes in
// reading order and selects the node under it.
func (m *viewModel) cycleSelection(delta int) {
	nodes := selectableNodes(m.orch.Current())
	if len(nodes) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(nodes)) % len(nodes)
	id := nodes[m.cursor].ID
	m.disp.Dispatch(m.ctx, input.Event{Action: input.ActionSelect, NodeID: &id})
}

func (m *viewModel) View() string {
	layer := m.orch.Current()
	if layer == nil {
		return "loading..."
	}

	cv := newCanvas(m.width, m.height)
	cv.drawLayer(layer, m.orch.Visibility(), m.disp.Selection())

	var b strings.Builder
	b.WriteString(cv.render())
	b.WriteString("\n")
	b.WriteString(m.statusBar(layer))
	return b.String()
}

func (m *viewModel) statusBar(layer *focus.Layer) string {
	if m.errLine != "" {
		return styleErrorBar.Render(m.errLine)
	}

	where := "root"
	if depth := m.orch.Depth(); depth > 0 {
		where = fmt.Sprintf("depth %d", depth)
	}

	parts := []string{StyleTitle.Render(appName), styleStatusBar.Render(where)}
	if m.orch.Busy() {
		parts = append(parts, StyleHighlight.Render("…"))
	}
	if hints := hintLine(layer.Snapshot); hints != "" {
		parts = append(parts, StyleDim.Render(hints))
	}
	parts = append(parts, StyleDim.Render("tab select · enter drill · esc back · h chain · q quit"))
	return strings.Join(parts, "  ")
}
