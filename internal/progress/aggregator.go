package progress

// initialSubunitEstimate seeds the expected sub-unit count before any
// completions are observed. ESP-IDF checkouts carry roughly this many
// submodules, so early percentages track reality closely.
const initialSubunitEstimate = 35

// estimateHeadroom is added to the observed completion count whenever it
// overtakes the current estimate, so the bar keeps moving instead of
// pinning at the stage ceiling.
const estimateHeadroom = 10

// Aggregator folds low-level events into a single non-decreasing percent
// series within the [lower, upper] slice of one stage. The main transfer
// occupies a fixed lower portion of the slice; sub-units share the rest,
// weighted by an adaptive estimate of their total count.
//
// An Aggregator is single-use and confined to the goroutine running Run.
type Aggregator struct {
	sink    Sink
	stage   Stage
	version string
	lower   int
	upper   int

	mainSlice   int
	lastEmitted int
	completed   int
	estimated   int
	hasSubunits bool
}

// NewAggregator builds an aggregator emitting into the [lower, upper]
// percent slice for one stage of one version.
func NewAggregator(sink Sink, stage Stage, version string, lower, upper int) *Aggregator {
	span := upper - lower
	if span < 0 {
		span = 0
	}
	return &Aggregator{
		sink:        sink,
		stage:       stage,
		version:     version,
		lower:       lower,
		upper:       upper,
		mainSlice:   span / 6,
		lastEmitted: lower,
		estimated:   initialSubunitEstimate,
	}
}

// Run consumes events until ch is closed, then emits a final report at the
// stage's upper bound regardless of whether a Finish event arrived. It is
// the receiving half of a worker/aggregator pair and must run on its own
// goroutine when the producer blocks.
func (a *Aggregator) Run(ch <-chan Event) {
	for ev := range ch {
		a.consume(ev)
	}
	a.emit(a.upper, "")
}

func (a *Aggregator) consume(ev Event) {
	switch ev.Kind {
	case KindUpdate:
		a.emit(a.lower+scale(ev.Percent, a.mainSlice), "fetching repository")
	case KindSubmoduleUpdate:
		a.hasSubunits = true
		a.raiseEstimate(a.completed)
		a.emit(a.subunitPercent(ev.Percent), "submodule "+ev.Name)
	case KindSubmoduleFinish:
		a.hasSubunits = true
		a.completed++
		a.raiseEstimate(a.completed)
		a.emit(a.subunitPercent(0), "submodule "+ev.Name)
	case KindFinish:
		if !a.hasSubunits {
			a.emit(a.upper, "")
		}
	}
}

// subunitPercent maps completed sub-units plus the in-flight unit's own
// percent onto the slice above the main portion.
func (a *Aggregator) subunitPercent(current int) int {
	subRange := a.upper - a.lower - a.mainSlice
	done := a.completed*subRange + scale(current, subRange)
	return a.lower + a.mainSlice + done/a.estimated
}

// raiseEstimate keeps the estimate strictly ahead of the observed count.
func (a *Aggregator) raiseEstimate(observed int) {
	if observed >= a.estimated {
		a.estimated = observed + estimateHeadroom
	}
}

// emit clamps pct into [lastEmitted, upper] and forwards it. Out-of-order
// or regressing producer values therefore never surface.
func (a *Aggregator) emit(pct int, detail string) {
	if pct > a.upper {
		pct = a.upper
	}
	if pct < a.lastEmitted {
		pct = a.lastEmitted
	}
	a.lastEmitted = pct
	a.sink.Progress(Report{
		Stage:   a.stage,
		Version: a.version,
		Percent: pct,
		Detail:  detail,
	})
}

func scale(percent, slice int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent * slice / 100
}
