package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sadopc/gesturekeeper/internal/clock"
	"github.com/sadopc/gesturekeeper/internal/export"
	"github.com/sadopc/gesturekeeper/internal/playback"
	"github.com/sadopc/gesturekeeper/internal/sequence"
	"github.com/sadopc/gesturekeeper/internal/tui"
)

// timeNow is extracted for testability.
var timeNow = time.Now

func newUICommand() command {
	return command{
		name:        "ui",
		description: "Open the terminal UI",
		logToFile:   true,
		run: func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
			sched := clock.NewReal()
			defer sched.Stop()

			app := tui.NewApp(ctx.Keeper, ctx.Bus, sched, ctx.Logger)
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
			_, err := p.Run()
			return err
		},
	}
}

func newListCommand() command {
	return command{
		name:        "list",
		description: "List saved gestures and sequences",
		run: func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
			return runList(ctx, stdout)
		},
	}
}

func runList(ctx *AppContext, stdout io.Writer) error {
	gestures := ctx.Keeper.Gestures()
	seqs := ctx.Keeper.Sequences()

	fmt.Fprintf(stdout, "Gestures (%d)\n", len(gestures))
	if len(gestures) > 0 {
		t := newTable("ID", "Name", "Points", "Created")
		for _, g := range gestures {
			t.Row(g.ID, g.Name, strconv.Itoa(len(g.Points)), g.CreatedAt.Format(time.RFC3339))
		}
		fmt.Fprintln(stdout, t.String())
	}

	fmt.Fprintf(stdout, "\nSequences (%d)\n", len(seqs))
	if len(seqs) > 0 {
		t := newTable("ID", "Name", "Steps", "Duration", "Timer")
		for _, s := range seqs {
			timer := "-"
			if s.TimerEnabled && s.TimerDelay != nil {
				timer = fmt.Sprintf("%d min", *s.TimerDelay)
			}
			t.Row(s.ID, s.Name, strconv.Itoa(len(s.Steps)), s.TotalDuration().String(), timer)
		}
		fmt.Fprintln(stdout, t.String())
	}
	return nil
}

func newFeaturesCommand() command {
	return command{
		name:        "features",
		description: "Show which security features have a gesture",
		run: func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
			t := newTable("Feature", "Status", "Description")
			for _, f := range ctx.Keeper.Features() {
				status := "not set"
				if f.Protected() {
					status = "active"
				}
				t.Row(f.Name, status, f.Description)
			}
			_, err := fmt.Fprintln(stdout, t.String())
			return err
		},
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func newExportCommand() command {
	return command{
		name:        "export",
		description: "Export gestures and sequences to CSV or JSON",
		configure: func(fs *flag.FlagSet) {
			fs.String("format", "json", "Output format: json, csv (sequences) or gestures-csv")
			fs.String("o", "", "Output path (default: gesturekeeper-<kind>-<date>.<ext> in the current directory)")
		},
		run: runExport,
	}
}

func runExport(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	format := strings.ToLower(fs.Lookup("format").Value.String())
	path := fs.Lookup("o").Value.String()
	date := timeNow().Format("2006-01-02")

	svc := ctx.Keeper
	var err error
	switch format {
	case "json":
		if path == "" {
			path = filepath.Join(".", fmt.Sprintf("gesturekeeper-export-%s.json", date))
		}
		err = export.ToJSON(svc.Gestures(), svc.Sequences(), path)
	case "csv":
		if path == "" {
			path = filepath.Join(".", fmt.Sprintf("gesturekeeper-sequences-%s.csv", date))
		}
		err = export.ToCSV(svc.Sequences(), path)
	case "gestures-csv":
		if path == "" {
			path = filepath.Join(".", fmt.Sprintf("gesturekeeper-gestures-%s.csv", date))
		}
		err = export.GesturesToCSV(svc.Gestures(), path)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return err
	}

	ctx.Logger.Info("exported", "format", format, "path", path)
	_, err = fmt.Fprintf(stdout, "Exported to %s\n", path)
	return err
}

func newPlayCommand() command {
	return command{
		name:        "play",
		description: "Replay a sequence by id or name, printing each step",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("arm", false, "Wait for the sequence's timer before starting")
		},
		run: func(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
			if len(args) != 1 {
				return errors.New("play needs exactly one sequence id or name")
			}
			seq, ok := ctx.Keeper.FindSequence(args[0])
			if !ok {
				return fmt.Errorf("sequence %q not found", args[0])
			}
			arm := fs.Lookup("arm").Value.String() == "true"

			sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			sched := clock.NewReal()
			defer sched.Stop()
			return playHeadless(sigCtx, seq, sched, arm, stdout, ctx.Logger)
		},
	}
}

// playHeadless runs seq to completion on the wall clock, printing every
// transition. Without arm a timer sequence starts at once.
func playHeadless(ctx context.Context, seq sequence.Record, sched *clock.Real, arm bool, out io.Writer, log *slog.Logger) error {
	done := make(chan struct{})
	p := playback.New(sched,
		playback.WithLogger(log),
		playback.WithObserver(func(s playback.Snapshot) {
			printSnapshot(out, seq, s)
			if s.State == playback.Complete {
				close(done)
			}
		}),
	)

	p.Open(seq)
	if arm {
		if p.State() != playback.Armed {
			p.Close()
			return playback.ErrTimerDisabled
		}
	} else if err := p.TogglePlay(); err != nil {
		return err
	}

	for {
		select {
		case <-done:
			p.Close()
			return nil
		case fn := <-sched.Fired():
			fn()
		case <-ctx.Done():
			p.Close()
			return ctx.Err()
		}
	}
}

func printSnapshot(out io.Writer, seq sequence.Record, s playback.Snapshot) {
	switch s.State {
	case playback.Armed:
		fmt.Fprintf(out, "armed: %s starts in %s\n", seq.Name, seq.ArmDelay())
	case playback.Running:
		if s.Step == nil {
			return
		}
		line := fmt.Sprintf("step %d/%d: %s at (%g, %g)", s.Index+1, len(seq.Steps), s.Step.Type.Label(), s.Step.Position.X, s.Step.Position.Y)
		if t := s.Step.TargetPosition; t != nil {
			line += fmt.Sprintf(" to (%g, %g)", t.X, t.Y)
		}
		fmt.Fprintf(out, "%s, %s\n", line, s.Step.Wait())
	case playback.Complete:
		fmt.Fprintf(out, "complete: %s\n", seq.Name)
	}
}
