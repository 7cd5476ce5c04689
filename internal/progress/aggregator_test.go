package progress

import (
	"sync"
	"testing"
)

// recorder captures every report for later inspection.
type recorder struct {
	mu       sync.Mutex
	percents []int
	reports  []Report
}

func (r *recorder) Progress(rep Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percents = append(r.percents, rep.Percent)
	r.reports = append(r.reports, rep)
}

func (r *recorder) Message(Level, string, string) {}

func runEvents(t *testing.T, a *Aggregator, events []Event) {
	t.Helper()
	ch := make(chan Event, QueueSize)
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	a.Run(ch)
}

func assertNonDecreasing(t *testing.T, percents []int) {
	t.Helper()
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("percent regressed at index %d: %d after %d", i, percents[i], percents[i-1])
		}
	}
}

func TestRunEndsAtUpperBoundWithoutFinish(t *testing.T) {
	rec := &recorder{}
	a := NewAggregator(rec, StageDownload, "v5.4", 0, 65)

	runEvents(t, a, []Event{
		Update(30),
		Update(80),
		SubmoduleUpdate("components/bt", 50),
		SubmoduleFinish("components/bt"),
	})

	if len(rec.percents) == 0 {
		t.Fatal("no reports emitted")
	}
	if got := rec.percents[len(rec.percents)-1]; got != 65 {
		t.Errorf("final percent = %d, want upper bound 65", got)
	}
	assertNonDecreasing(t, rec.percents)
}

func TestRegressingProducerValuesAreClamped(t *testing.T) {
	rec := &recorder{}
	a := NewAggregator(rec, StageDownload, "v5.4", 0, 65)

	runEvents(t, a, []Event{
		Update(90),
		Update(10), // out of order
		SubmoduleUpdate("a", 100),
		SubmoduleUpdate("b", 5), // lower than the running total
		SubmoduleFinish("a"),
		SubmoduleFinish("b"),
	})

	assertNonDecreasing(t, rec.percents)
}

func TestSubunitProgressStaysBelowUpperBeforeClose(t *testing.T) {
	rec := &recorder{}
	a := NewAggregator(rec, StageDownload, "v5.4", 0, 65)

	ch := make(chan Event, QueueSize)
	for i := 0; i < 20; i++ {
		ch <- SubmoduleFinish("mod")
	}
	close(ch)
	a.Run(ch)

	// All reports but the final reconciliation stay strictly below the cap.
	for _, p := range rec.percents[:len(rec.percents)-1] {
		if p >= 65 {
			t.Errorf("intermediate percent %d reached upper bound", p)
		}
	}
}

func TestEstimateGrowsBeyondSeed(t *testing.T) {
	rec := &recorder{}
	a := NewAggregator(rec, StageDownload, "v5.4", 0, 65)

	ch := make(chan Event, QueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ch)
	}()
	// More completions than the initial estimate.
	for i := 0; i < initialSubunitEstimate+15; i++ {
		ch <- SubmoduleFinish("mod")
	}
	close(ch)
	<-done

	assertNonDecreasing(t, rec.percents)
	if a.estimated <= initialSubunitEstimate {
		t.Errorf("estimated = %d, want raised beyond seed %d", a.estimated, initialSubunitEstimate)
	}
	if got := rec.percents[len(rec.percents)-1]; got != 65 {
		t.Errorf("final percent = %d, want 65", got)
	}
}

func TestFinishWithoutSubunitsJumpsToUpper(t *testing.T) {
	rec := &recorder{}
	a := NewAggregator(rec, StageDownload, "v5.4", 10, 65)

	runEvents(t, a, []Event{Update(50), Finish()})

	saw := false
	for _, p := range rec.percents {
		if p == 65 {
			saw = true
		}
	}
	if !saw {
		t.Error("Finish without sub-units never reported the upper bound")
	}
}

func TestOffsetSliceRespectsLowerBound(t *testing.T) {
	rec := &recorder{}
	a := NewAggregator(rec, StageExtract, "v5.4", 65, 80)

	runEvents(t, a, []Event{Update(0), Update(50)})

	for _, p := range rec.percents {
		if p < 65 || p > 80 {
			t.Errorf("percent %d outside [65, 80]", p)
		}
	}
}

func TestReportsCarryStageAndVersion(t *testing.T) {
	rec := &recorder{}
	a := NewAggregator(rec, StagePython, "v5.1.5", 80, 90)

	runEvents(t, a, []Event{Update(40)})

	for _, rep := range rec.reports {
		if rep.Stage != StagePython {
			t.Errorf("Stage = %v, want %v", rep.Stage, StagePython)
		}
		if rep.Version != "v5.1.5" {
			t.Errorf("Version = %q, want v5.1.5", rep.Version)
		}
	}
}

func TestStageStrings(t *testing.T) {
	if got := StagePrerequisites.String(); got != "Installing prerequisites" {
		t.Errorf("got %q", got)
	}
	if !StageError.Terminal() || !StageComplete.Terminal() {
		t.Error("Complete and Error must be terminal")
	}
	if StageDownload.Terminal() {
		t.Error("Download must not be terminal")
	}
}
