package progress

// EventKind discriminates the low-level progress events a collaborator can
// emit. The set is closed: the aggregator switches over it exhaustively, so
// adding a kind forces an aggregator update.
type EventKind int

const (
	// KindUpdate reports overall transfer progress in percent.
	KindUpdate EventKind = iota
	// KindSubmoduleUpdate reports progress of one named sub-unit.
	KindSubmoduleUpdate
	// KindSubmoduleFinish marks one named sub-unit complete.
	KindSubmoduleFinish
	// KindFinish marks the overall operation complete. Collaborators are
	// not required to send it; closing the channel is sufficient.
	KindFinish
)

// Event is one low-level progress report from a worker.
type Event struct {
	Kind    EventKind
	Name    string // sub-unit name, when applicable
	Percent int    // 0–100, when applicable
}

// Update builds an overall-progress event.
func Update(percent int) Event {
	return Event{Kind: KindUpdate, Percent: percent}
}

// SubmoduleUpdate builds a sub-unit progress event.
func SubmoduleUpdate(name string, percent int) Event {
	return Event{Kind: KindSubmoduleUpdate, Name: name, Percent: percent}
}

// SubmoduleFinish builds a sub-unit completion event.
func SubmoduleFinish(name string) Event {
	return Event{Kind: KindSubmoduleFinish, Name: name}
}

// Finish builds an overall-completion event.
func Finish() Event {
	return Event{Kind: KindFinish}
}

// QueueSize bounds the worker-to-aggregator channel. A full queue blocks
// the producer, which is acceptable: the consumer does no I/O beyond
// emitting to the sink.
const QueueSize = 64
