package usecase

// RunState is a pipeline run's position in its state machine:
// Idle → Fetching → Normalizing → Summarizing → Ranking → Compiling →
// Persisting → Done. Failed is reachable from Persisting or from a
// configuration error before Fetching; Cancelled from any stage boundary.
type RunState string

const (
	StateIdle        RunState = "idle"
	StateFetching    RunState = "fetching"
	StateNormalizing RunState = "normalizing"
	StateSummarizing RunState = "summarizing"
	StateRanking     RunState = "ranking"
	StateCompiling   RunState = "compiling"
	StatePersisting  RunState = "persisting"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed"
	StateCancelled   RunState = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}
