package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"lamina/internal/buildpipeline"
)

// track is the per-file stage strip; native linking and writing share the
// last cell.
var track = []buildpipeline.Stage{
	buildpipeline.StageLex,
	buildpipeline.StageParse,
	buildpipeline.StageAnalyze,
	buildpipeline.StageOptimize,
	buildpipeline.StageCodegen,
	buildpipeline.StageWrite,
}

func trackIndex(stage buildpipeline.Stage) int {
	if stage == buildpipeline.StageNative {
		stage = buildpipeline.StageWrite
	}
	for i, s := range track {
		if s == stage {
			return i
		}
	}
	return -1
}

type palette struct {
	title, ok, failed, active, pending, dim lipgloss.Style
}

func newPalette() palette {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return palette{
		title:   lipgloss.NewStyle().Bold(true),
		ok:      fg("2"),
		failed:  fg("1"),
		active:  fg("6"),
		pending: fg("8"),
		dim:     fg("7"),
	}
}

// fileRow is one source file in the view. reached counts finished cells of
// track.
type fileRow struct {
	path    string
	status  buildpipeline.Status
	stage   buildpipeline.Stage
	reached int
	elapsed time.Duration
}

func (r fileRow) finished() bool {
	switch r.status {
	case buildpipeline.StatusDone, buildpipeline.StatusCached, buildpipeline.StatusError:
		return true
	}
	return false
}

type buildView struct {
	title    string
	events   <-chan buildpipeline.Event
	spin     spinner.Model
	bar      progress.Model
	pal      palette
	rows     []fileRow
	byPath   map[string]int
	width    int
	finished bool
}

type eventMsg buildpipeline.Event
type closedMsg struct{}

// NewProgressModel shows one row per file with its stage strip and a
// summary bar. The model quits once events is closed.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	spin := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 60

	v := &buildView{
		title:  title,
		events: events,
		spin:   spin,
		bar:    bar,
		pal:    newPalette(),
		rows:   make([]fileRow, len(files)),
		byPath: make(map[string]int, len(files)),
		width:  80,
	}
	v.spin.Style = v.pal.active
	for i, f := range files {
		v.rows[i] = fileRow{path: f, status: buildpipeline.StatusQueued}
		v.byPath[f] = i
	}
	return v
}

func (v *buildView) Init() tea.Cmd {
	return tea.Batch(v.spin.Tick, v.next())
}

func (v *buildView) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-v.events; ok {
			return eventMsg(ev)
		}
		return closedMsg{}
	}
}

func (v *buildView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return v, tea.Batch(v.apply(buildpipeline.Event(msg)), v.next())
	case closedMsg:
		v.finished = true
		return v, tea.Quit
	case spinner.TickMsg:
		if v.finished {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd
	case progress.FrameMsg:
		m, cmd := v.bar.Update(msg)
		v.bar = m.(progress.Model)
		return v, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			v.width = msg.Width
			v.bar.Width = max(msg.Width-24, 10)
		}
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return v, tea.Quit
		}
	}
	return v, nil
}

func (v *buildView) apply(ev buildpipeline.Event) tea.Cmd {
	i, ok := v.byPath[ev.File]
	if !ok {
		return nil
	}
	row := &v.rows[i]
	switch ev.Status {
	case buildpipeline.StatusWorking:
		row.status, row.stage = ev.Status, ev.Stage
		if idx := trackIndex(ev.Stage); idx > row.reached {
			row.reached = idx
		}
	case buildpipeline.StatusError:
		row.status = ev.Status
		if ev.Stage != "" {
			row.stage = ev.Stage
		}
	case buildpipeline.StatusDone, buildpipeline.StatusCached:
		row.status, row.reached, row.elapsed = ev.Status, len(track), ev.Elapsed
	default:
		return nil
	}
	return v.bar.SetPercent(v.fraction())
}

func (v *buildView) fraction() float64 {
	if len(v.rows) == 0 {
		return 0
	}
	cells := 0
	for _, r := range v.rows {
		if r.finished() {
			cells += len(track)
		} else {
			cells += r.reached
		}
	}
	return float64(cells) / float64(len(v.rows)*len(track))
}

func (v *buildView) View() string {
	if len(v.rows) == 0 {
		return ""
	}
	var b strings.Builder
	head := v.spin.View() + " " + v.title
	if v.finished {
		head = v.pal.ok.Render("✓") + " " + v.title
	}
	b.WriteString(v.pal.title.Render(head))
	b.WriteString("\n\n")

	nameWidth := max(v.width-len(track)-26, 16)
	for _, r := range v.rows {
		b.WriteString("  ")
		b.WriteString(v.strip(r))
		fmt.Fprintf(&b, "  %-10s %s", v.statusText(r), truncatePath(r.path, nameWidth))
		if r.elapsed > 0 {
			b.WriteString(v.pal.dim.Render(fmt.Sprintf("  %s", r.elapsed.Round(time.Microsecond))))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	if v.finished {
		b.WriteString(v.bar.ViewAs(1))
	} else {
		b.WriteString(v.bar.View())
	}
	b.WriteString("  ")
	b.WriteString(v.summary())
	b.WriteString("\n")
	return b.String()
}

func (v *buildView) strip(r fileRow) string {
	var b strings.Builder
	for i := range track {
		switch {
		case i < r.reached:
			b.WriteString(v.pal.ok.Render("●"))
		case i == r.reached && r.status == buildpipeline.StatusError:
			b.WriteString(v.pal.failed.Render("✗"))
		case i == r.reached && r.status == buildpipeline.StatusWorking:
			b.WriteString(v.pal.active.Render("◐"))
		default:
			b.WriteString(v.pal.pending.Render("·"))
		}
	}
	return b.String()
}

func (v *buildView) statusText(r fileRow) string {
	text := string(r.status)
	if r.status == buildpipeline.StatusWorking {
		text = string(r.stage)
	}
	text = fmt.Sprintf("%-10s", text)
	switch r.status {
	case buildpipeline.StatusDone, buildpipeline.StatusCached:
		return v.pal.ok.Render(text)
	case buildpipeline.StatusError:
		return v.pal.failed.Render(text)
	case buildpipeline.StatusWorking:
		return v.pal.active.Render(text)
	}
	return v.pal.dim.Render(text)
}

func (v *buildView) summary() string {
	done, failed, cached := 0, 0, 0
	for _, r := range v.rows {
		switch r.status {
		case buildpipeline.StatusDone:
			done++
		case buildpipeline.StatusCached:
			done++
			cached++
		case buildpipeline.StatusError:
			failed++
		}
	}
	s := fmt.Sprintf("%d/%d", done, len(v.rows))
	if cached > 0 {
		s += fmt.Sprintf(", %d cached", cached)
	}
	if failed > 0 {
		s += ", " + v.pal.failed.Render(fmt.Sprintf("%d failed", failed))
	}
	return s
}

// truncatePath keeps the tail of path, which holds the file name.
func truncatePath(path string, width int) string {
	if width <= 0 || runewidth.StringWidth(path) <= width {
		return path
	}
	const ellipsis = "..."
	if width <= len(ellipsis) {
		return runewidth.Truncate(path, width, "")
	}
	rs := []rune(path)
	room := width - len(ellipsis)
	i := len(rs)
	for i > 0 {
		w := runewidth.RuneWidth(rs[i-1])
		if w > room {
			break
		}
		room -= w
		i--
	}
	return ellipsis + string(rs[i:])
}
