package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/gesturekeeper/internal/clock"
	"github.com/sadopc/gesturekeeper/internal/config"
	"github.com/sadopc/gesturekeeper/internal/events"
	"github.com/sadopc/gesturekeeper/internal/keeper"
	"github.com/sadopc/gesturekeeper/internal/playback"
	"github.com/sadopc/gesturekeeper/internal/sequence"
	"github.com/sadopc/gesturekeeper/internal/store"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(t *testing.T) *AppContext {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	log := newTestLogger()
	bus := events.NewBus(log)
	svc, err := keeper.New(s, bus, log)
	if err != nil {
		t.Fatalf("keeper.New: %v", err)
	}
	ctx := &AppContext{Config: config.Default(), Logger: log, Store: s, Bus: bus, Keeper: svc, closers: []io.Closer{s}}
	t.Cleanup(ctx.Close)
	return ctx
}

func zero() *int {
	v := 0
	return &v
}

func testSequence() sequence.Record {
	return sequence.Record{
		ID:   "sequence-1",
		Name: "Unlock",
		Steps: []sequence.Step{
			{ID: "step-1", Type: sequence.Tap, Position: sequence.Position{X: 3, Y: 4}, Delay: zero()},
			{ID: "step-2", Type: sequence.Swipe, Position: sequence.Position{X: 1, Y: 1}, TargetPosition: &sequence.Position{X: 9, Y: 2}, Delay: zero()},
		},
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ==========================================================================
// Dispatch
// ==========================================================================

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	rc := NewRootCommand()
	rc.stdout, rc.stderr = &stdout, &stderr

	if err := rc.Execute([]string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(stderr.String(), `Unknown command "bogus"`) {
		t.Fatalf("stderr = %q", stderr.String())
	}
	if !strings.Contains(stdout.String(), "Available commands") {
		t.Fatalf("help not printed: %q", stdout.String())
	}
}

func TestExecuteListAgainstFileDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	var stdout bytes.Buffer
	rc := NewRootCommand()
	rc.stdout, rc.stderr = &stdout, io.Discard

	db := filepath.Join(dir, "keeper.db")
	if err := rc.Execute([]string{"-db", db, "-log-level", "error", "list"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stdout.String(), "Gestures (0)") || !strings.Contains(stdout.String(), "Sequences (0)") {
		t.Fatalf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(db); err != nil {
		t.Fatalf("database not created: %v", err)
	}
}

func TestExecuteRejectsBadLogLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	rc := NewRootCommand()
	rc.stdout, rc.stderr = io.Discard, io.Discard

	if err := rc.Execute([]string{"-log-level", "loud", "list"}); err == nil {
		t.Fatal("expected error for bad log level")
	}
}

func TestExecuteFlagOverridesBadEnvLevel(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvLogLevel, "loud")
	rc := NewRootCommand()
	rc.stdout, rc.stderr = io.Discard, io.Discard

	db := filepath.Join(t.TempDir(), "keeper.db")
	if err := rc.Execute([]string{"-db", db, "-log-level", "error", "list"}); err != nil {
		t.Fatalf("flag should override the environment: %v", err)
	}
}

// ==========================================================================
// Commands
// ==========================================================================

func TestRunListShowsRecords(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.Keeper.AddSequence(testSequence()); err != nil {
		t.Fatalf("AddSequence: %v", err)
	}

	var out bytes.Buffer
	if err := runList(ctx, &out); err != nil {
		t.Fatalf("runList: %v", err)
	}
	for _, want := range []string{"Sequences (1)", "Unlock", "sequence-1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestFeaturesCommand(t *testing.T) {
	ctx := newTestContext(t)
	cmd := newFeaturesCommand()

	var out bytes.Buffer
	if err := cmd.run(flag.NewFlagSet("features", flag.ContinueOnError), nil, ctx, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Ghost Delete") || !strings.Contains(out.String(), "not set") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunExportFormats(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.Keeper.AddSequence(testSequence()); err != nil {
		t.Fatalf("AddSequence: %v", err)
	}
	dir := t.TempDir()

	for _, format := range []string{"json", "csv", "gestures-csv"} {
		t.Run(format, func(t *testing.T) {
			fs := flag.NewFlagSet("export", flag.ContinueOnError)
			newExportCommand().configure(fs)
			path := filepath.Join(dir, "out-"+format)
			if err := fs.Parse([]string{"-format", format, "-o", path}); err != nil {
				t.Fatalf("parse: %v", err)
			}

			var out bytes.Buffer
			if err := runExport(fs, nil, ctx, &out, io.Discard); err != nil {
				t.Fatalf("runExport: %v", err)
			}
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("export file missing: %v", err)
			}
			if !strings.Contains(out.String(), path) {
				t.Fatalf("output = %q", out.String())
			}
		})
	}
}

func TestRunExportDefaultPath(t *testing.T) {
	ctx := newTestContext(t)
	dir := t.TempDir()
	t.Chdir(dir)

	orig := timeNow
	timeNow = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { timeNow = orig }()

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	newExportCommand().configure(fs)
	if err := runExport(fs, nil, ctx, io.Discard, io.Discard); err != nil {
		t.Fatalf("runExport: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gesturekeeper-export-2025-06-01.json")); err != nil {
		t.Fatalf("default export missing: %v", err)
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	ctx := newTestContext(t)
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	newExportCommand().configure(fs)
	if err := fs.Parse([]string{"-format", "xml"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := runExport(fs, nil, ctx, io.Discard, io.Discard); err == nil {
		t.Fatal("expected error for xml")
	}
}

// ==========================================================================
// Headless playback
// ==========================================================================

func TestPlayHeadlessRunsToCompletion(t *testing.T) {
	sched := clock.NewReal()
	defer sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := playHeadless(ctx, testSequence(), sched, false, &out, newTestLogger()); err != nil {
		t.Fatalf("playHeadless: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"step 1/2: Tap at (3, 4)",
		"step 2/2: Swipe at (1, 1) to (9, 2)",
		"complete: Unlock",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPlayHeadlessArmNeedsTimer(t *testing.T) {
	sched := clock.NewReal()
	defer sched.Stop()

	err := playHeadless(context.Background(), testSequence(), sched, true, io.Discard, newTestLogger())
	if !errors.Is(err, playback.ErrTimerDisabled) {
		t.Fatalf("err = %v, want ErrTimerDisabled", err)
	}
}

func TestPlayHeadlessCancelledWhileArmed(t *testing.T) {
	sched := clock.NewReal()
	defer sched.Stop()

	seq := testSequence()
	minutes := 5
	seq.TimerEnabled = true
	seq.TimerDelay = &minutes

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := playHeadless(ctx, seq, sched, true, &out, newTestLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !strings.Contains(out.String(), "armed: Unlock starts in 5m0s") {
		t.Fatalf("output = %q", out.String())
	}
}
