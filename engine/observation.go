package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"sync"

	goklab "github.com/reoring/goklab"
	"github.com/reoring/goklab/codec"
)

// ObservationReference is the structure export of an observation.
type ObservationReference struct {
	ID                string                 `json:"id"`
	RootContextID     string                 `json:"rootContextId"`
	ContextID         string                 `json:"contextId"`
	Label             string                 `json:"label"`
	Observable        string                 `json:"observable"`
	ExportLabel       string                 `json:"exportLabel"`
	ShapeType         goklab.ShapeType       `json:"shapeType"`
	EncodedShape      string                 `json:"encodedShape"`
	SpatialProjection string                 `json:"spatialProjection"`
	ValueType         goklab.ValueType       `json:"valueType"`
	ObservationType   goklab.ObservationType `json:"observationType"`
	GeometryTypes     []goklab.GeometryType  `json:"geometryTypes"`
	LiteralValue      string                 `json:"literalValue"`
	OverallValue      string                 `json:"overallValue"`
	DataSummary       *DataSummary           `json:"dataSummary"`
	ChildIDs          map[string]string      `json:"childIds"` // name -> id
	ChildrenCount     int                    `json:"childrenCount"`
	ParentID          string                 `json:"parentId"`
	URN               string                 `json:"urn"`
	CreationTime      int64                  `json:"creationTime"`
	Metadata          map[string]string      `json:"metadata"`
	Empty             bool                   `json:"empty"`
}

// DataSummary describes the values of a state.
type DataSummary struct {
	NodataProportion float64  `json:"nodataProportion"`
	MinValue         float64  `json:"minValue"`
	MaxValue         float64  `json:"maxValue"`
	Mean             float64  `json:"mean"`
	Categorized      bool     `json:"categorized"`
	Histogram        []int64  `json:"histogram"`
	Categories       []string `json:"categories"`
}

// Observation is a resolved engine observation. Child observations are
// fetched on demand and cached.
type Observation struct {
	client *Client

	mu         sync.Mutex
	ref        *ObservationReference
	catalogIDs map[string]string
	catalog    map[string]*Observation
}

func newObservation(ref *ObservationReference, c *Client) *Observation {
	return &Observation{
		client:     c,
		ref:        ref,
		catalogIDs: map[string]string{},
		catalog:    map[string]*Observation{},
	}
}

func (o *Observation) reference() *ObservationReference {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ref
}

// Reference returns a shallow copy of the current structure.
func (o *Observation) Reference() ObservationReference {
	return *o.reference()
}

func (o *Observation) ID() string { return o.reference().ID }

// Observable returns the observable the engine resolved.
func (o *Observation) Observable() *Observable {
	return NewObservable(o.reference().Observable)
}

// IsEmpty reports whether the engine produced no data.
func (o *Observation) IsEmpty() bool {
	ref := o.reference()
	return ref == nil || ref.Empty
}

// Export streams target in the given format to w.
func (o *Observation) Export(ctx context.Context, target Export, format ExportFormat, w io.Writer) (int64, error) {
	if !format.Allows(target) {
		return 0, fmt.Errorf("%w: export format %s is incompatible with %s", ErrIllegalArgument, format, target)
	}
	return o.client.StreamExport(ctx, o.ID(), target, format, w)
}

// ExportText returns a textual export.
func (o *Observation) ExportText(ctx context.Context, target Export, format ExportFormat) (string, error) {
	if !format.IsText() {
		return "", fmt.Errorf("%w: %s is not a text format", ErrIllegalArgument, format)
	}
	var buf bytes.Buffer
	if _, err := o.Export(ctx, target, format, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportFile writes an export to path. A partial file is removed on error.
func (o *Observation) ExportFile(ctx context.Context, target Export, format ExportFormat, path string) (int64, error) {
	if !format.Allows(target) {
		return 0, fmt.Errorf("%w: export format %s is incompatible with %s", ErrIllegalArgument, format, target)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := o.Export(ctx, target, format, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return n, nil
}

// ScalarValue returns the overall value converted by value type: float64
// for numbers, bool for booleans, the raw string otherwise. It is nil when
// the engine reported none.
func (o *Observation) ScalarValue() (any, error) {
	ref := o.reference()
	v := ref.OverallValue
	if v == "" {
		return nil, nil
	}
	switch ref.ValueType {
	case goklab.ValueNumber:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: overall value %q of %s: %v", ErrRemote, v, ref.ID, err)
		}
		return f, nil
	case goklab.ValueBoolean:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: overall value %q of %s: %v", ErrRemote, v, ref.ID, err)
		}
		return b, nil
	}
	return v, nil
}

// DataRange returns the value range of a state.
func (o *Observation) DataRange() (Range, error) {
	s, err := o.summary()
	if err != nil {
		return Range{}, err
	}
	return NewRange(s.MinValue, s.MaxValue), nil
}

// AggregatedValue returns the mean of a state.
func (o *Observation) AggregatedValue() (float64, error) {
	s, err := o.summary()
	if err != nil {
		return 0, err
	}
	return s.Mean, nil
}

func (o *Observation) summary() (*DataSummary, error) {
	ref := o.reference()
	if ref == nil {
		return nil, fmt.Errorf("%w: no observation", ErrIllegalState)
	}
	if ref.ObservationType != goklab.ObservationState {
		return nil, fmt.Errorf("%w: %s is not a state", ErrIllegalState, ref.ID)
	}
	if ref.DataSummary == nil {
		return nil, fmt.Errorf("%w: state %s has no data summary", ErrRemote, ref.ID)
	}
	return ref.DataSummary, nil
}

// Child returns the child observation known under name, or nil when the
// name has not been observed.
func (o *Observation) Child(ctx context.Context, name string) (*Observation, error) {
	o.mu.Lock()
	id, ok := o.catalogIDs[name]
	if !ok {
		o.mu.Unlock()
		return nil, nil
	}
	if ret, ok := o.catalog[id]; ok {
		o.mu.Unlock()
		return ret, nil
	}
	o.mu.Unlock()

	ref, err := o.client.GetObservation(ctx, id)
	if err != nil {
		return nil, err
	}
	ret := newObservation(ref, o.client)
	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, ok := o.catalog[id]; ok {
		return prev, nil
	}
	o.catalog[id] = ret
	return ret, nil
}

// notifyObservation records a child id that the engine reported.
func (o *Observation) notifyObservation(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for name, child := range o.ref.ChildIDs {
		if child == id {
			o.catalogIDs[name] = id
			return
		}
	}
}

// Context is a root observation in which further observables are observed.
type Context struct {
	*Observation

	// injected values, sent with the next request and then cleared
	states map[string]string
}

func newContext(ref *ObservationReference, c *Client) *Context {
	return &Context{Observation: newObservation(ref, c), states: map[string]string{}}
}

// With injects a value for observable into the next Submit or Estimate. A
// *goklab.Geometry value creates an object, which must be named.
func (c *Context) With(o *Observable, value any) (*Context, error) {
	if err := o.Err(); err != nil {
		return c, err
	}
	var v string
	switch x := value.(type) {
	case *goklab.Geometry:
		if o.Name() == "" {
			return c, fmt.Errorf("%w: observables that create objects must be named: %s", ErrIllegalState, o)
		}
		s, err := codec.Geometry().Encode(context.Background(), x)
		if err != nil {
			return c, err
		}
		v = s
	case nil:
		return c, fmt.Errorf("%w: nil value for %s", ErrIllegalArgument, o)
	default:
		v = fmt.Sprint(x)
	}
	c.mu.Lock()
	c.states[o.String()] = v
	c.mu.Unlock()
	return c, nil
}

// Submit observes o in the context. The resolved observation is added to
// the context catalog.
func (c *Context) Submit(ctx context.Context, o *Observable, scenarios ...string) (*TicketHandler[*Observation], error) {
	id, err := c.request(ctx, o, false, scenarios)
	if err != nil {
		return nil, err
	}
	return newTicketHandler[*Observation](c.client, id, c), nil
}

// Estimate asks for the cost of observing o.
func (c *Context) Estimate(ctx context.Context, o *Observable, scenarios ...string) (*TicketHandler[*Estimate], error) {
	id, err := c.request(ctx, o, true, scenarios)
	if err != nil {
		return nil, err
	}
	return newTicketHandler[*Estimate](c.client, id, c), nil
}

// SubmitEstimate starts the observation an estimate was computed for.
func (c *Context) SubmitEstimate(ctx context.Context, e *Estimate) (*TicketHandler[*Observation], error) {
	if e == nil || e.TicketType != TicketObservationEstimate {
		return nil, fmt.Errorf("%w: not an observation estimate", ErrIllegalArgument)
	}
	id, err := c.client.SubmitEstimate(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	return newTicketHandler[*Observation](c.client, id, c), nil
}

func (c *Context) request(ctx context.Context, o *Observable, estimate bool, scenarios []string) (string, error) {
	if o == nil {
		return "", fmt.Errorf("%w: nil observable", ErrIllegalArgument)
	}
	if err := o.Err(); err != nil {
		return "", err
	}
	req := newObservationRequest(c.ID(), o.String())
	req.Estimate = estimate
	req.Scenarios = append(req.Scenarios, scenarios...)

	c.mu.Lock()
	req.States = c.states
	c.states = map[string]string{}
	c.mu.Unlock()

	id, err := c.client.SubmitObservation(ctx, req)
	if err != nil {
		// keep the injections for a retry
		c.mu.Lock()
		maps.Copy(req.States, c.states)
		c.states = req.States
		c.mu.Unlock()
		return "", err
	}
	return id, nil
}

// Dataflow returns the dataflow that built the context, as ELK graph JSON or
// KDL code.
func (c *Context) Dataflow(ctx context.Context, format ExportFormat) (string, error) {
	if format != ELKGraphJSON && format != KDLCode {
		return "", fmt.Errorf("%w: cannot export a dataflow to %s", ErrIllegalArgument, format)
	}
	return c.ExportText(ctx, ExportDataflow, format)
}

// Provenance returns the provenance graph as ELK graph JSON or KIM code.
func (c *Context) Provenance(ctx context.Context, simplified bool, format ExportFormat) (string, error) {
	if format != ELKGraphJSON && format != KIMCode {
		return "", fmt.Errorf("%w: cannot export the provenance graph to %s", ErrIllegalArgument, format)
	}
	target := ExportProvenanceFull
	if simplified {
		target = ExportProvenanceSimplified
	}
	return c.ExportText(ctx, target, format)
}

// updateWith refreshes the context structure after obs was made and adds
// obs to the catalog.
func (c *Context) updateWith(ctx context.Context, obs *Observation) {
	ref, err := c.client.GetObservation(ctx, c.ID())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.client.logger.Warn("context refresh failed", "context", c.ID(), "err", err)
		}
		return
	}
	id := obs.ID()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref = ref
	for name, child := range ref.ChildIDs {
		if child == id {
			c.catalogIDs[name] = id
			c.catalog[id] = obs
			return
		}
	}
}
