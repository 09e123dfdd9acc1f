package engine

import (
	"context"
	"fmt"
	"log/slog"

	goklab "github.com/reoring/goklab"
	"github.com/reoring/goklab/codec"
	"github.com/reoring/goklab/config"
)

// Session is an authenticated connection to an engine. Contexts are created
// from a session; everything else happens in a context.
type Session struct {
	client *Client
}

// Open starts a session with a local engine.
func Open(ctx context.Context, c *Client) (*Session, error) {
	if _, err := c.Authenticate(ctx); err != nil {
		return nil, err
	}
	return &Session{client: c}, nil
}

// Login starts a session with a remote engine.
func Login(ctx context.Context, c *Client, username, password string) (*Session, error) {
	if _, err := c.Login(ctx, username, password); err != nil {
		return nil, err
	}
	return &Session{client: c}, nil
}

// Connect builds a client from cfg and opens a local or remote session
// depending on whether credentials are configured.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := New(cfg.Engine.URL,
		WithLogger(logger),
		WithPollInterval(cfg.Polling.Interval),
		WithPollTimeout(cfg.Polling.Timeout),
	)
	if cfg.Remote() {
		return Login(ctx, c, cfg.Engine.Username, cfg.Engine.Password)
	}
	return Open(ctx, c)
}

// ID returns the session token.
func (s *Session) ID() string { return s.client.Token() }

func (s *Session) IsOnline() bool  { return s.client.IsOnline() }
func (s *Session) Client() *Client { return s.client }

// SubmitOption adds to a context request.
type SubmitOption func(*ContextRequest) error

// WithScenarios names scenarios to activate in the context.
func WithScenarios(urns ...string) SubmitOption {
	return func(r *ContextRequest) error {
		r.Scenarios = append(r.Scenarios, urns...)
		return nil
	}
}

// WithObservables observes further observables when the context is made.
func WithObservables(obs ...*Observable) SubmitOption {
	return func(r *ContextRequest) error {
		for _, o := range obs {
			if err := o.Err(); err != nil {
				return err
			}
			r.Observables = append(r.Observables, o.String())
		}
		return nil
	}
}

// Submit creates a context of contextType covering g.
func (s *Session) Submit(ctx context.Context, contextType *Observable, g *goklab.Geometry, opts ...SubmitOption) (*TicketHandler[*Context], error) {
	id, err := s.submit(ctx, contextType, g, false, opts)
	if err != nil {
		return nil, err
	}
	return newTicketHandler[*Context](s.client, id, nil), nil
}

// Estimate asks for the cost of creating the context.
func (s *Session) Estimate(ctx context.Context, contextType *Observable, g *goklab.Geometry, opts ...SubmitOption) (*TicketHandler[*Estimate], error) {
	id, err := s.submit(ctx, contextType, g, true, opts)
	if err != nil {
		return nil, err
	}
	return newTicketHandler[*Estimate](s.client, id, nil), nil
}

// SubmitEstimate creates the context an estimate was computed for.
func (s *Session) SubmitEstimate(ctx context.Context, e *Estimate) (*TicketHandler[*Context], error) {
	if e == nil || e.TicketType != TicketContextEstimate {
		return nil, fmt.Errorf("%w: not a context estimate", ErrIllegalArgument)
	}
	id, err := s.client.SubmitEstimate(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return newTicketHandler[*Context](s.client, id, nil), nil
}

func (s *Session) submit(ctx context.Context, contextType *Observable, g *goklab.Geometry, estimate bool, opts []SubmitOption) (string, error) {
	if contextType == nil {
		return "", fmt.Errorf("%w: nil context type", ErrIllegalArgument)
	}
	if err := contextType.Err(); err != nil {
		return "", err
	}
	if g == nil || g.IsEmpty() || g.IsScalar() {
		return "", fmt.Errorf("%w: a context needs a dimensioned geometry", ErrIllegalArgument)
	}
	encoded, err := codec.Geometry().Encode(ctx, g)
	if err != nil {
		return "", err
	}
	req := newContextRequest()
	req.Geometry = encoded
	req.ContextType = contextType.String()
	req.Estimate = estimate
	for _, o := range opts {
		if err := o(req); err != nil {
			return "", err
		}
	}
	return s.client.SubmitContext(ctx, req)
}

// Close ends the session.
func (s *Session) Close(ctx context.Context) error {
	return s.client.Logout(ctx)
}
