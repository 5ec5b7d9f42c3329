package bridge

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/looplab/fsm"

	"github.com/jacky-htg/call-console/libs/call"
)

// Attempt states.
const (
	StateIdle         = "idle"
	StateProvisioning = "provisioning"
	StateDispatching  = "dispatching"
	StateSettling     = "settling"
	StateJoined       = "joined"
	StateCompleted    = "completed"
	StateFailed       = "failed"
	StateCancelled    = "cancelled"
)

const (
	eventProvision = "provision"
	eventDispatch  = "dispatch"
	eventSettle    = "settle"
	eventJoin      = "join"
	eventComplete  = "complete"
	eventFail      = "fail"
	eventCancel    = "cancel"
)

// Hooks receive the settle continuation. They run on the clock's timer
// goroutine and never after Cancel has returned true.
type Hooks struct {
	// OnJoin is called when the operator asked to join the room.
	OnJoin func(res *Result)
	// OnNotice is called with a completion notice otherwise.
	OnNotice func(msg string)
}

// Attempt is one outbound call from provisioning to join. Only the settle
// delay can be cancelled; provisioning and dispatch run to completion.
type Attempt struct {
	Call   OutboundCall
	Result *Result

	mu    sync.Mutex
	fsm   *fsm.FSM
	timer *clock.Timer
	hooks Hooks
}

func newAttempt(c OutboundCall, hooks Hooks) *Attempt {
	return &Attempt{
		Call:  c,
		hooks: hooks,
		fsm: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				{Name: eventProvision, Src: []string{StateIdle}, Dst: StateProvisioning},
				{Name: eventDispatch, Src: []string{StateProvisioning}, Dst: StateDispatching},
				{Name: eventSettle, Src: []string{StateIdle, StateProvisioning, StateDispatching}, Dst: StateSettling},
				{Name: eventJoin, Src: []string{StateSettling}, Dst: StateJoined},
				{Name: eventComplete, Src: []string{StateSettling}, Dst: StateCompleted},
				{Name: eventFail, Src: []string{StateIdle, StateProvisioning, StateDispatching}, Dst: StateFailed},
				{Name: eventCancel, Src: []string{StateSettling}, Dst: StateCancelled},
			},
			fsm.Callbacks{},
		),
	}
}

// State returns the current state name.
func (a *Attempt) State() string {
	return a.fsm.Current()
}

func (a *Attempt) step(ctx context.Context, event string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.fsm.Event(ctx, event)
}

// Cancel stops a pending join. It reports whether the continuation was still
// pending; once Cancel returns true no hook will run.
func (a *Attempt) Cancel() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.fsm.Can(eventCancel) {
		return false
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	_ = a.fsm.Event(context.Background(), eventCancel)
	return true
}

func (a *Attempt) fire() {
	a.mu.Lock()
	if a.fsm.Current() != StateSettling {
		a.mu.Unlock()
		return
	}
	join := a.Call.JoinAsHumanAgent
	event := eventComplete
	if join {
		event = eventJoin
	}
	_ = a.fsm.Event(context.Background(), event)
	hooks, res := a.hooks, a.Result
	a.mu.Unlock()

	if join {
		if hooks.OnJoin != nil {
			hooks.OnJoin(res)
		}
		return
	}
	if hooks.OnNotice != nil {
		hooks.OnNotice(call.NotJoiningNotice)
	}
}

// Start runs provisioning and dispatch, then schedules the join after the
// settle delay. On error nothing is scheduled and no hook runs.
func (o *Orchestrator) Start(ctx context.Context, c OutboundCall, hooks Hooks) (*Attempt, error) {
	a := newAttempt(normalize(c), hooks)

	res, err := o.provision(ctx, c, a)
	if err != nil {
		a.step(ctx, eventFail)
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Result = res
	_ = a.fsm.Event(ctx, eventSettle)
	a.timer = o.clock.AfterFunc(o.settle, a.fire)
	o.log.WithField("room", a.Call.RoomName).WithField("delay", o.settle).Debug("join scheduled")
	return a, nil
}
