package studio

import (
	"context"
	"time"
)

type intentReq struct {
	Intent Intent
	Resp   chan intentResp
}

type intentResp struct {
	Result IntentResult
	Err    error
}

type snapshotReq struct {
	Resp chan State
}

type subscribeReq struct {
	Resp chan subscription
}

type subscription struct {
	ID int
	Ch chan State
}

func (s *Studio) Run(ctx context.Context) error {
	defer close(s.done)
	interval := time.Duration(s.tune.TickIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Printf("studio loop started: tick=%s played_time=%d", interval, s.state.Stats.PlayedTime)
	for {
		select {
		case <-ctx.Done():
			s.log.Printf("studio loop stopped: %v", ctx.Err())
			return ctx.Err()
		case <-s.stop:
			s.log.Printf("studio loop stopped")
			return nil
		case req := <-s.inbox:
			res, err := s.Apply(req.Intent)
			req.Resp <- intentResp{Result: res, Err: err}
			s.publishMetrics(s.Metrics().StepMS)
			s.broadcast()
		case req := <-s.snapReq:
			req.Resp <- s.state.Clone()
		case req := <-s.subscribe:
			s.nextSub++
			ch := make(chan State, 1)
			ch <- s.state.Clone()
			s.subs[s.nextSub] = ch
			req.Resp <- subscription{ID: s.nextSub, Ch: ch}
		case id := <-s.unsubscribe:
			delete(s.subs, id)
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop ends Run. Safe to call more than once.
func (s *Studio) Stop() { s.stopOnce.Do(func() { close(s.stop) }) }

// Do submits an intent to the loop and waits for its result.
func (s *Studio) Do(ctx context.Context, in Intent) (IntentResult, error) {
	resp := make(chan intentResp, 1)
	select {
	case s.inbox <- intentReq{Intent: in, Resp: resp}:
	case <-ctx.Done():
		return IntentResult{}, ctx.Err()
	case <-s.done:
		return IntentResult{}, ErrStopped
	}
	select {
	case r := <-resp:
		return r.Result, r.Err
	case <-ctx.Done():
		return IntentResult{}, ctx.Err()
	case <-s.done:
		return IntentResult{}, ErrStopped
	}
}

// Snapshot returns a deep copy of the state as of the loop's next turn.
func (s *Studio) Snapshot(ctx context.Context) (State, error) {
	resp := make(chan State, 1)
	select {
	case s.snapReq <- snapshotReq{Resp: resp}:
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-s.done:
		return State{}, ErrStopped
	}
	select {
	case st := <-resp:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-s.done:
		return State{}, ErrStopped
	}
}

// Subscribe returns a channel that always holds the latest state. Slow
// readers skip intermediate states. The returned cancel func unsubscribes.
func (s *Studio) Subscribe(ctx context.Context) (<-chan State, func(), error) {
	resp := make(chan subscription, 1)
	select {
	case s.subscribe <- subscribeReq{Resp: resp}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-s.done:
		return nil, nil, ErrStopped
	}
	var sub subscription
	select {
	case sub = <-resp:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-s.done:
		return nil, nil, ErrStopped
	}
	cancel := func() {
		select {
		case s.unsubscribe <- sub.ID:
		case <-s.done:
		}
	}
	return sub.Ch, cancel, nil
}

func (s *Studio) broadcast() {
	if len(s.subs) == 0 {
		return
	}
	for _, ch := range s.subs {
		sendLatest(ch, s.state.Clone())
	}
}

// sendLatest replaces any unread value so the reader only ever sees the newest.
func sendLatest(ch chan State, st State) {
	select {
	case ch <- st:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}
