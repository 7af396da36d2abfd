package sim

// Snapshot pairs a state copy with its freshly solved hydraulics. Observers
// receive snapshots by value; the engine's live state is never shared.
type Snapshot struct {
	Tick   uint64       `json:"tick"`
	State  State        `json:"state"`
	Result SolverResult `json:"result"`
}

// snapshotOf solves the given state and wraps it for broadcast.
func snapshotOf(tick uint64, s State) Snapshot {
	return Snapshot{
		Tick:   tick,
		State:  s.Clone(),
		Result: Solve(s),
	}
}
