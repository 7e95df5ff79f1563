package sim

// HookPos names the site at which a hook fires.
type HookPos struct {
	Name string
}

// Hook positions fired by the engine.
var (
	// HookPosArrival fires after a job is admitted and its arrival recorded.
	HookPosArrival = &HookPos{Name: "Arrival"}
	// HookPosDispatch fires when the server accepts a job.
	HookPosDispatch = &HookPos{Name: "Dispatch"}
	// HookPosDeparture fires after a job's departure is recorded.
	HookPosDeparture = &HookPos{Name: "Departure"}
)

// HookCtx describes the site at which a hook is triggered.
// Job is a copy; hooks cannot alter engine state through it.
type HookCtx struct {
	Pos      *HookPos
	Now      float64
	Job      Job
	QueueLen int // jobs waiting after the triggering action
}

// Hook is a short piece of program invoked by a hookable object.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) { f(ctx) }

// Hookable defines an object that accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// HookableBase provides the Hookable plumbing for embedding types.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook registers a hook. Hooks fire in registration order.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
