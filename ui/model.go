package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stephenmfriend/agent-commander/agent"
	"github.com/stephenmfriend/agent-commander/executor"
)

// Line is one line of agent output as it arrived.
type Line struct {
	Text      string
	IsStderr  bool
	Timestamp time.Time
}

// LineMsg delivers an output line to the viewer.
type LineMsg struct {
	Text     string
	IsStderr bool
}

// DoneMsg signals the run has finished.
type DoneMsg struct {
	Result *agent.Result
	Err    error
}

type tickMsg time.Time

// Viewer is the TUI for a single attached agent run.
type Viewer struct {
	width  int
	height int

	title   string
	spinner spinner.Model
	onStop  func()

	lines     []Line
	mode      DisplayMode
	scrollPos int
	follow    bool

	startTime  time.Time
	endTime    time.Time
	stopping   bool
	quitOnDone bool
	done       bool
	result     *agent.Result
	err        error
}

// NewViewer creates a viewer titled with the tool name. onStop is called,
// at most once, when the user asks to stop the run.
func NewViewer(title string, onStop func()) *Viewer {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(Purple)

	return &Viewer{
		title:     title,
		spinner:   s,
		onStop:    onStop,
		follow:    true,
		startTime: time.Now(),
	}
}

// SetStopHandler replaces the stop callback.
func (v *Viewer) SetStopHandler(onStop func()) {
	v.onStop = onStop
}

// Result returns the run's result once DoneMsg has arrived.
func (v *Viewer) Result() (*agent.Result, error) {
	return v.result, v.err
}

// Done reports whether the run has finished.
func (v *Viewer) Done() bool {
	return v.done
}

// Mode returns the current display mode.
func (v *Viewer) Mode() DisplayMode {
	return v.mode
}

func (v *Viewer) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.clampScroll()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyPress(msg)

	case spinner.TickMsg:
		if v.done {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tickMsg:
		if v.done {
			return v, nil
		}
		return v, tickCmd()

	case LineMsg:
		v.appendLine(Line{Text: msg.Text, IsStderr: msg.IsStderr, Timestamp: time.Now()})
		return v, nil

	case DoneMsg:
		v.done = true
		v.result = msg.Result
		v.err = msg.Err
		v.endTime = time.Now()
		if v.quitOnDone {
			return v, tea.Quit
		}
		return v, nil
	}

	return v, nil
}

func (v *Viewer) appendLine(l Line) {
	v.lines = append(v.lines, l)
	if v.follow {
		v.scrollPos = v.maxScroll()
	}
}

func (v *Viewer) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if v.done {
			return v, tea.Quit
		}
		v.quitOnDone = true
		return v, v.requestStop()

	case "s", "esc":
		return v, v.requestStop()

	case "r":
		v.mode = v.mode.Toggle()
		v.clampScroll()
		if v.follow {
			v.scrollPos = v.maxScroll()
		}
		return v, nil

	case "up", "k":
		v.scrollBy(-1)
	case "down", "j":
		v.scrollBy(1)
	case "pgup":
		v.scrollBy(-v.visibleLines())
	case "pgdown":
		v.scrollBy(v.visibleLines())
	case "g", "home":
		v.scrollPos = 0
		v.follow = false
	case "G", "end":
		v.scrollPos = v.maxScroll()
		v.follow = true
	}

	return v, nil
}

func (v *Viewer) requestStop() tea.Cmd {
	if v.done || v.stopping {
		return nil
	}
	v.stopping = true
	stop := v.onStop
	if stop == nil {
		return nil
	}
	return func() tea.Msg {
		stop()
		return nil
	}
}

func (v *Viewer) scrollBy(n int) {
	v.scrollPos += n
	v.clampScroll()
	v.follow = v.scrollPos >= v.maxScroll()
}

func (v *Viewer) clampScroll() {
	if m := v.maxScroll(); v.scrollPos > m {
		v.scrollPos = m
	}
	if v.scrollPos < 0 {
		v.scrollPos = 0
	}
}

func (v *Viewer) maxScroll() int {
	n := len(v.displayLines()) - v.visibleLines()
	if n < 0 {
		return 0
	}
	return n
}

func (v *Viewer) visibleLines() int {
	// Title, status, help and the panel border.
	n := v.height - 6
	if n < 1 {
		return 1
	}
	return n
}

type displayLine struct {
	text  string
	style lipgloss.Style
}

// displayLines applies the display mode to the raw output.
func (v *Viewer) displayLines() []displayLine {
	out := make([]displayLine, 0, len(v.lines))
	for _, l := range v.lines {
		if l.IsStderr {
			out = append(out, displayLine{text: l.Text, style: StderrStyle})
			continue
		}
		if v.mode == DisplayRaw {
			out = append(out, displayLine{text: l.Text, style: OutputStyle})
			continue
		}
		text := RenderLine(l.Text)
		if text == "" {
			continue
		}
		// Streamed text may span lines.
		for _, part := range strings.Split(text, "\n") {
			out = append(out, displayLine{text: part, style: styleFor(part)})
		}
	}
	return out
}

func styleFor(text string) lipgloss.Style {
	switch {
	case strings.HasPrefix(text, "[Error"):
		return ErrorLineStyle
	case strings.HasPrefix(text, "[Tool"), strings.HasPrefix(text, "[Command"):
		return ToolStyle
	default:
		return OutputStyle
	}
}

func (v *Viewer) View() string {
	if v.width == 0 {
		return ""
	}

	var b strings.Builder
	width := v.width - 4

	b.WriteString(TitleStyle.Render(fmt.Sprintf("agent-commander: %s", v.title)))
	b.WriteString("  ")
	b.WriteString(v.renderStatus())
	b.WriteString("\n")

	lines := v.displayLines()
	visible := v.visibleLines()
	start := v.scrollPos
	if start > len(lines) {
		start = len(lines)
	}
	end := start + visible
	if end > len(lines) {
		end = len(lines)
	}

	var body strings.Builder
	for i := start; i < end; i++ {
		body.WriteString(lines[i].style.Render(truncate(lines[i].text, width-2)))
		body.WriteString("\n")
	}
	for i := end - start; i < visible; i++ {
		body.WriteString("\n")
	}
	b.WriteString(PanelStyle.Width(width).Render(strings.TrimSuffix(body.String(), "\n")))
	b.WriteString("\n")

	help := HelpKeyStyle.Render("j/k") + HelpStyle.Render(" scroll  ") +
		HelpKeyStyle.Render("g/G") + HelpStyle.Render(" top/bottom  ") +
		HelpKeyStyle.Render("r") + HelpStyle.Render(" "+v.mode.Toggle().String()+"  ") +
		HelpKeyStyle.Render("s") + HelpStyle.Render(" stop  ") +
		HelpKeyStyle.Render("q") + HelpStyle.Render(" quit")
	b.WriteString(help)

	return b.String()
}

func (v *Viewer) renderStatus() string {
	var elapsed time.Duration
	if v.done && !v.endTime.IsZero() {
		elapsed = v.endTime.Sub(v.startTime).Round(time.Second)
	} else {
		elapsed = time.Since(v.startTime).Round(time.Second)
	}

	switch {
	case !v.done && v.stopping:
		return RunStopping.Render("[Stopping...]") + " " + elapsed.String()
	case !v.done:
		return v.spinner.View() + " " + RunRunning.Render("[Running]") + " " + elapsed.String()
	case v.err != nil:
		return RunFailed.Render(fmt.Sprintf("[Error: %v]", v.err))
	case v.result != nil && v.result.ExitCode != 0:
		return RunFailed.Render(fmt.Sprintf("[Failed:%d]", v.result.ExitCode)) + " " + elapsed.String()
	default:
		return RunDone.Render("[Done]") + " " + elapsed.String()
	}
}

// ProgramSink forwards output lines to a running program.
type ProgramSink struct {
	Program *tea.Program
}

var _ executor.LineSink = ProgramSink{}

func (s ProgramSink) OnStdout(line string) { s.Program.Send(LineMsg{Text: line}) }
func (s ProgramSink) OnStderr(line string) { s.Program.Send(LineMsg{Text: line, IsStderr: true}) }
