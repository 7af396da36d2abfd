package sim

import (
	"sync"
	"time"

	"pump-panel/server/logging"
)

const (
	// ActionRejectQueueLimit indicates an action was dropped due to
	// per-session throttling.
	ActionRejectQueueLimit = "queue_limit"
	// ActionRejectQueueFull indicates the global action buffer is saturated.
	ActionRejectQueueFull = "queue_full"
)

// LoopConfig tunes the action buffer and tick loop orchestration.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
	ActionCapacity  int
	PerSessionLimit int
	WarningStep     int
}

// LoopTickContext carries the timing metadata for one loop step.
type LoopTickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64
}

// LoopStepResult reports the outcome of one loop step to hooks.
type LoopStepResult struct {
	Tick         uint64
	Now          time.Time
	Delta        float64
	Snapshot     Snapshot
	Actions      []StagedAction
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
	MaxDelta     float64
}

// LoopHooks lets the hub observe and steer the loop without owning it.
type LoopHooks struct {
	NextTick       func() uint64
	AfterStep      func(LoopStepResult)
	OnActionDrop   func(reason string, staged StagedAction)
	OnQueueWarning func(length int)
}

// Loop coordinates action ingestion and the fixed-timestep simulation
// runner. The driving cadence is wall-clock based with a catch-up clamp, so
// a stalled host produces one large (bounded) delta instead of drift.
type Loop struct {
	core   EngineCore
	buffer *ActionBuffer
	hooks  LoopHooks
	config LoopConfig

	queueMu         sync.Mutex
	perSessionCount map[string]int
	dropCounts      map[string]uint64
}

// NewLoop wraps the provided engine core with a ring-buffer queue and loop.
func NewLoop(core EngineCore, cfg LoopConfig, hooks LoopHooks) *Loop {
	if core == nil {
		return nil
	}
	deps := core.Deps()
	return &Loop{
		core:            core,
		buffer:          NewActionBuffer(cfg.ActionCapacity, deps.Metrics),
		hooks:           hooks,
		config:          cfg,
		perSessionCount: make(map[string]int),
		dropCounts:      make(map[string]uint64),
	}
}

// Snapshot delegates to the underlying engine.
func (l *Loop) Snapshot() Snapshot {
	if l == nil {
		return Snapshot{}
	}
	return l.core.Snapshot()
}

// Pending reports the number of staged actions.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// Enqueue stages an action, enforcing per-session throttling and capacity
// limits.
func (l *Loop) Enqueue(staged StagedAction) (bool, string) {
	if l == nil {
		return false, ActionRejectQueueFull
	}
	reason := ""
	var dropCount uint64
	l.queueMu.Lock()
	if l.config.PerSessionLimit > 0 && staged.SessionID != "" {
		count := l.perSessionCount[staged.SessionID]
		if count >= l.config.PerSessionLimit {
			reason = ActionRejectQueueLimit
			dropCount = l.incrementDropLocked(staged.SessionID)
		} else {
			l.perSessionCount[staged.SessionID] = count + 1
		}
	}
	if reason == "" {
		if !l.buffer.Push(staged) {
			reason = ActionRejectQueueFull
			dropCount = l.incrementDropLocked(staged.SessionID)
		} else if l.config.WarningStep > 0 {
			length := l.buffer.Len()
			if length >= l.config.WarningStep && length%l.config.WarningStep == 0 {
				l.queueMu.Unlock()
				l.warnQueue(length)
				return true, ""
			}
		}
	}
	l.queueMu.Unlock()
	if reason != "" {
		l.reportDrop(reason, staged, dropCount)
		return false, reason
	}
	return true, ""
}

// Advance executes a single simulation step using the staged actions.
func (l *Loop) Advance(ctx LoopTickContext) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	actions := l.drainActions()
	l.core.Apply(actions)
	l.core.Step(ctx.Delta)
	return LoopStepResult{
		Tick:     ctx.Tick,
		Now:      ctx.Now,
		Delta:    ctx.Delta,
		Snapshot: l.core.Snapshot(),
		Actions:  actions,
	}
}

// Run drives the fixed-timestep loop until the stop channel closes.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	tickRate := l.config.TickRate
	if tickRate <= 0 {
		tickRate = 10
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	clock := l.core.Deps().Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	last := clock.Now()
	budgetSeconds := 1.0 / float64(tickRate)
	maxDt := budgetSeconds
	if l.config.CatchupMaxTicks > 1 {
		maxDt = budgetSeconds * float64(l.config.CatchupMaxTicks)
	}
	budgetDuration := time.Second / time.Duration(tickRate)

	var tick uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := clock.Now()
			dt := now.Sub(last).Seconds()
			clamped := false
			if dt <= 0 {
				dt = budgetSeconds
			} else if dt > maxDt {
				dt = maxDt
				clamped = true
			}
			last = now

			if l.hooks.NextTick != nil {
				tick = l.hooks.NextTick()
			} else {
				tick++
			}

			start := clock.Now()
			result := l.Advance(LoopTickContext{Tick: tick, Now: now, Delta: dt})
			result.Duration = clock.Now().Sub(start)
			result.Budget = budgetDuration
			result.ClampedDelta = clamped
			result.MaxDelta = maxDt

			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}

func (l *Loop) drainActions() []StagedAction {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	actions := l.buffer.Drain()
	if len(l.perSessionCount) > 0 {
		l.perSessionCount = make(map[string]int)
	}
	return actions
}

func (l *Loop) incrementDropLocked(sessionID string) uint64 {
	if sessionID == "" {
		return 0
	}
	count := l.dropCounts[sessionID] + 1
	l.dropCounts[sessionID] = count
	return count
}

func (l *Loop) warnQueue(length int) {
	if l.hooks.OnQueueWarning != nil {
		l.hooks.OnQueueWarning(length)
	}
}

func (l *Loop) reportDrop(reason string, staged StagedAction, count uint64) {
	if l.hooks.OnActionDrop != nil {
		l.hooks.OnActionDrop(reason, staged)
	}
	if reason == ActionRejectQueueLimit && count > 0 && count&(count-1) == 0 {
		if logger := l.core.Deps().Logger; logger != nil {
			logger.Printf(
				"[backpressure] dropping action session=%s kind=%s count=%d limit=%d",
				staged.SessionID,
				staged.Action.Kind,
				count,
				l.config.PerSessionLimit,
			)
		}
	}
}
