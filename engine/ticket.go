package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reoring/goklab/codec"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "OPEN"
	TicketResolved TicketStatus = "RESOLVED"
	TicketError    TicketStatus = "ERROR"
)

// TicketType tells what a resolved ticket carries.
type TicketType string

const (
	TicketResourceSubmission   TicketType = "ResourceSubmission"
	TicketResourcePublication  TicketType = "ResourcePublication"
	TicketComponentSetup       TicketType = "ComponentSetup"
	TicketContextObservation   TicketType = "ContextObservation"
	TicketObservationInContext TicketType = "ObservationInContext"
	TicketContextEstimate      TicketType = "ContextEstimate"
	TicketObservationEstimate  TicketType = "ObservationEstimate"
)

// Ticket is the engine's handle on an asynchronous task.
type Ticket struct {
	ID             string            `json:"id"`
	PostDate       int64             `json:"postDate"`
	ResolutionDate int64             `json:"resolutionDate"`
	Status         TicketStatus      `json:"status"`
	Type           TicketType        `json:"type"`
	Data           map[string]string `json:"data"`
	StatusMessage  string            `json:"statusMessage"`
	Seen           bool              `json:"seen"`
}

// Posted returns PostDate as a time.
func (t *Ticket) Posted() time.Time { return millis(t.PostDate) }

// Resolved returns ResolutionDate as a time; zero while unresolved.
func (t *Ticket) Resolved() time.Time {
	if t.ResolutionDate == 0 {
		return time.Time{}
	}
	return millis(t.ResolutionDate)
}

func (t *Ticket) String() string {
	return fmt.Sprintf("Ticket [id=%s, status=%s, type=%s, data=%v]", t.ID, t.Status, t.Type, t.Data)
}

func millis(ms int64) time.Time {
	tm, _ := codec.EpochMillis().Decode(context.Background(), ms)
	return tm
}

// Estimate is the cost of a context or observation computed in advance.
// Submitting it starts the task.
type Estimate struct {
	ID         string
	Cost       float64
	Currency   string // ISO code, or "KLB" for raw credits
	TicketType TicketType
	Feasible   bool
}

// TicketHandler waits for a ticket to resolve into a T: *Context,
// *Observation or *Estimate.
type TicketHandler[T any] struct {
	client  *Client
	id      string
	parent  *Context
	timeout time.Duration

	mu        sync.Mutex
	cancelled bool
	done      bool
	result    T
}

func newTicketHandler[T any](c *Client, id string, parent *Context) *TicketHandler[T] {
	return &TicketHandler[T]{client: c, id: id, parent: parent, timeout: c.pollTimeout}
}

// ID returns the ticket id.
func (h *TicketHandler[T]) ID() string { return h.id }

// Cancel stops polling. The engine task is not affected.
func (h *TicketHandler[T]) Cancel() {
	h.mu.Lock()
	h.cancelled = true
	h.mu.Unlock()
}

func (h *TicketHandler[T]) IsCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

func (h *TicketHandler[T]) IsDone() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.done
}

// Get polls the ticket until it resolves, fails, is cancelled, ctx ends or
// the client's poll timeout elapses. A resolved result is cached.
func (h *TicketHandler[T]) Get(ctx context.Context) (T, error) {
	var zero T
	h.mu.Lock()
	if h.done {
		defer h.mu.Unlock()
		return h.result, nil
	}
	h.mu.Unlock()

	pollCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	ticker := time.NewTicker(h.client.pollInterval)
	defer ticker.Stop()

	for {
		if h.IsCancelled() {
			return zero, fmt.Errorf("%w: %s", ErrTicketCancelled, h.id)
		}
		v, ok, err := h.poll(pollCtx)
		if err != nil {
			if ctx.Err() == nil && pollCtx.Err() != nil {
				return zero, fmt.Errorf("%w: %s after %s", ErrTimeout, h.id, h.timeout)
			}
			return zero, err
		}
		if ok {
			h.mu.Lock()
			h.result, h.done = v, true
			h.mu.Unlock()
			return v, nil
		}
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, fmt.Errorf("%w: %s after %s", ErrTimeout, h.id, h.timeout)
		case <-ticker.C:
		}
	}
}

func (h *TicketHandler[T]) poll(ctx context.Context) (T, bool, error) {
	var zero T
	t, err := h.client.GetTicket(ctx, h.id)
	if err != nil {
		return zero, false, err
	}
	switch t.Status {
	case TicketError:
		h.Cancel()
		h.client.logger.Warn("ticket failed", "ticket", h.id, "message", t.StatusMessage)
		return zero, false, fmt.Errorf("%w: %s: %s", ErrTicketFailed, h.id, t.StatusMessage)
	case TicketResolved:
		res, err := h.process(ctx, t)
		if err != nil {
			return zero, false, err
		}
		v, ok := res.(T)
		if !ok {
			return zero, false, fmt.Errorf("%w: ticket %s of type %s resolved to %T", ErrRemote, h.id, t.Type, res)
		}
		h.client.logger.Info("ticket resolved", "ticket", h.id, "type", string(t.Type))
		return v, true, nil
	}
	return zero, false, nil
}

func (h *TicketHandler[T]) process(ctx context.Context, t *Ticket) (any, error) {
	switch t.Type {
	case TicketContextEstimate, TicketObservationEstimate:
		return makeEstimate(t)
	case TicketContextObservation:
		return h.makeContext(ctx, t)
	case TicketObservationInContext:
		return h.makeObservation(ctx, t)
	}
	return nil, fmt.Errorf("%w: unexpected ticket type %q", ErrRemote, t.Type)
}

func (h *TicketHandler[T]) makeContext(ctx context.Context, t *Ticket) (*Context, error) {
	ref, err := h.client.GetObservation(ctx, t.Data["context"])
	if err != nil {
		return nil, err
	}
	ret := newContext(ref, h.client)
	for _, id := range artifacts(t) {
		ret.notifyObservation(id)
	}
	return ret, nil
}

func (h *TicketHandler[T]) makeObservation(ctx context.Context, t *Ticket) (*Observation, error) {
	ids := artifacts(t)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: ticket %s resolved without artifacts", ErrRemote, t.ID)
	}
	ref, err := h.client.GetObservation(ctx, ids[0])
	if err != nil {
		return nil, err
	}
	ret := newObservation(ref, h.client)
	if h.parent != nil {
		h.parent.updateWith(ctx, ret)
	}
	return ret, nil
}

func makeEstimate(t *Ticket) (*Estimate, error) {
	cost, err := strconv.ParseFloat(t.Data["cost"], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: estimate cost %q: %v", ErrRemote, t.Data["cost"], err)
	}
	return &Estimate{
		ID:         t.Data["estimate"],
		Cost:       cost,
		Currency:   t.Data["currency"],
		TicketType: t.Type,
		Feasible:   t.Data["feasible"] == "true",
	}, nil
}

func artifacts(t *Ticket) []string {
	var ret []string
	for _, id := range strings.Split(t.Data["artifacts"], ",") {
		if id = strings.TrimSpace(id); id != "" {
			ret = append(ret, id)
		}
	}
	return ret
}

// WaitAll waits for every handler concurrently and returns the results in
// handler order. The first failure cancels the remaining waits.
func WaitAll[T any](ctx context.Context, handlers ...*TicketHandler[T]) ([]T, error) {
	g, ctx := errgroup.WithContext(ctx)
	ret := make([]T, len(handlers))
	for i, h := range handlers {
		if h == nil {
			return nil, errors.New("engine: nil ticket handler")
		}
		i, h := i, h
		g.Go(func() error {
			v, err := h.Get(ctx)
			if err != nil {
				return err
			}
			ret[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}
