package commands

import (
	"io"

	"github.com/Mohammed-el-Amine/check-port/pkg/output"
	"github.com/Mohammed-el-Amine/check-port/pkg/output/subscribers"
)

// outputPipeline is the event stream plus the subscribers that need an
// explicit finish.
type outputPipeline struct {
	out output.Output
	bar *subscribers.ProgressBar
}

// setupOutputPipeline subscribes the formatters for one command run:
//   - text: human formatter on stdout/stderr, optional progress bar on stderr
//   - jsonl: one JSON object per event on stdout
//   - json, yaml: nothing streamed; the final document is written by the caller
//
// Diagnostics go to stderr when -v was given, whatever the format.
func setupOutputPipeline(stdout, stderr io.Writer, outputFormat string, bar bool, verbosity int, color bool) *outputPipeline {
	stream := output.NewOutputEventStream()
	p := &outputPipeline{}

	switch outputFormat {
	case "text":
		human := subscribers.NewHumanFormatter(stdout, stderr, color)
		if bar {
			human = human.WithoutProgress()
			p.bar = subscribers.NewProgressBar(stderr, color)
			stream.Subscribe(p.bar)
		}
		stream.Subscribe(human)
	case "jsonl":
		stream.Subscribe(subscribers.NewJSONFormatter(stdout))
	}

	if verbosity > 0 {
		level := output.LevelVerbose
		switch {
		case verbosity == 2:
			level = output.LevelDebug
		case verbosity > 2:
			level = output.LevelTrace
		}
		stream.Subscribe(subscribers.NewDiagnosticSubscriber(level, stderr))
	}

	p.out = output.NewDefaultOutput(stream)
	return p
}

// finish terminates the progress bar line, if any.
func (p *outputPipeline) finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
