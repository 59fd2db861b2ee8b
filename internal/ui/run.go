package ui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"lamina/internal/buildpipeline"
)

// RunProgress shows the progress view on out while work runs. work
// reports through the sink it is given; the view closes when work returns.
func RunProgress(ctx context.Context, out io.Writer, title string, files []string, work func(buildpipeline.ProgressSink) error) error {
	events := make(chan buildpipeline.Event, 64)
	p := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out), tea.WithContext(ctx), tea.WithInput(nil))

	workErr := make(chan error, 1)
	go func() {
		err := work(buildpipeline.ChannelSink{Ch: events})
		close(events)
		workErr <- err
	}()
	if _, err := p.Run(); err != nil {
		// drain so the worker can finish
		go func() {
			for range events {
			}
		}()
		if werr := <-workErr; werr != nil {
			return werr
		}
		return err
	}
	return <-workErr
}
