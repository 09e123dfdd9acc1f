package engine_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	goklab "github.com/reoring/goklab"
	"github.com/reoring/goklab/engine"
	"github.com/reoring/goklab/internal/wire"
)

const (
	localToken  = "local-session"
	remoteToken = "remote-session"
	testUser    = "alice"
	testPass    = "secret"
)

type fakeTicket struct {
	ticket  engine.Ticket
	polls   int
	after   int    // polls answered OPEN before resolving
	fail    string // status message of an ERROR ticket
	pending bool   // never resolves
}

// fakeEngine serves the public API from memory. Tickets resolve after a
// configurable number of polls.
type fakeEngine struct {
	srv *httptest.Server

	mu           sync.Mutex
	resolveAfter int
	failNext     string
	hangNext     bool
	loggedOut    bool
	userAgent    string
	accept       string
	contextBody  map[string]any
	contextReqs  []engine.ContextRequest
	obsReqs      []engine.ObservationRequest
	tickets      map[string]*fakeTicket
	observations map[string]*engine.ObservationReference
	estimates    map[string]engine.Ticket // estimate id -> ticket to create on submit
	exports      map[string]string        // "target/id" -> payload
	template     engine.ObservationReference
}

func newFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()
	f := &fakeEngine{
		resolveAfter: 1,
		tickets:      map[string]*fakeTicket{},
		observations: map[string]*engine.ObservationReference{},
		estimates:    map[string]engine.Ticket{},
		exports:      map[string]string{},
	}
	r := chi.NewRouter()
	r.Get("/ping", f.ping)
	r.Post("/api/v2/users/log-in", f.login)
	r.With(f.requireToken).Post("/api/v2/users/log-out", f.logout)
	r.Route("/api/v2/public", func(r chi.Router) {
		r.Use(f.requireToken)
		r.Post("/submit/context", f.submitContext)
		r.Post("/submit/observation/{context}", f.submitObservation)
		r.Get("/submit/estimate/{estimate}", f.submitEstimate)
		r.Get("/ticket/info/{ticket}", f.ticketInfo)
		r.Get("/export/{export}/{observation}", f.export)
	})
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeEngine) client(opts ...engine.Option) *engine.Client {
	base := []engine.Option{
		engine.WithHTTPClient(f.srv.Client()),
		engine.WithPollInterval(5 * time.Millisecond),
		engine.WithPollTimeout(2 * time.Second),
	}
	return engine.New(f.srv.URL+"/", append(base, opts...)...)
}

func (f *fakeEngine) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := r.Header.Get("Authorization")
		if tok != localToken && tok != remoteToken {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		f.mu.Lock()
		f.userAgent = r.Header.Get("User-Agent")
		f.accept = r.Header.Get("Accept")
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeEngine) ping(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.userAgent = r.Header.Get("User-Agent")
	f.mu.Unlock()
	writeJSON(w, map[string]any{"localSessionId": localToken})
}

func (f *fakeEngine) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := wire.Decode(r.Body, &req); err != nil || req.Username != testUser || req.Password != testPass {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]any{"session": remoteToken})
}

func (f *fakeEngine) logout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.loggedOut = true
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *fakeEngine) submitContext(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := wire.Decode(r.Body, &raw); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, _ := wire.Marshal(raw)
	var req engine.ContextRequest
	_ = wire.Unmarshal(b, &req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.contextBody = raw
	f.contextReqs = append(f.contextReqs, req)

	if req.Estimate {
		estimateID := uuid.NewString()
		f.estimates[estimateID] = engine.Ticket{Type: engine.TicketContextObservation, Data: map[string]string{"context": f.newContextLocked(req).ID}}
		writeJSON(w, f.newTicketLocked(engine.TicketContextEstimate, estimateData(estimateID)))
		return
	}
	ctx := f.newContextLocked(req)
	writeJSON(w, f.newTicketLocked(engine.TicketContextObservation, map[string]string{"context": ctx.ID}))
}

func (f *fakeEngine) submitObservation(w http.ResponseWriter, r *http.Request) {
	var req engine.ObservationRequest
	if err := wire.Decode(r.Body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	contextID := chi.URLParam(r, "context")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.obsReqs = append(f.obsReqs, req)
	ctx, ok := f.observations[contextID]
	if !ok || req.ContextID != contextID {
		http.Error(w, "no such context", http.StatusNotFound)
		return
	}
	obs := f.newObservationLocked(ctx, req.URN)
	data := map[string]string{"artifacts": obs.ID}
	if req.Estimate {
		estimateID := uuid.NewString()
		f.estimates[estimateID] = engine.Ticket{Type: engine.TicketObservationInContext, Data: data}
		writeJSON(w, f.newTicketLocked(engine.TicketObservationEstimate, estimateData(estimateID)))
		return
	}
	writeJSON(w, f.newTicketLocked(engine.TicketObservationInContext, data))
}

func (f *fakeEngine) submitEstimate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	est, ok := f.estimates[chi.URLParam(r, "estimate")]
	if !ok {
		http.Error(w, "no such estimate", http.StatusNotFound)
		return
	}
	writeJSON(w, f.newTicketLocked(est.Type, est.Data))
}

func (f *fakeEngine) ticketInfo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, ok := f.tickets[chi.URLParam(r, "ticket")]
	if !ok {
		http.Error(w, "no such ticket", http.StatusNotFound)
		return
	}
	ft.polls++
	switch {
	case ft.pending || ft.polls <= ft.after:
	case ft.fail != "":
		ft.ticket.Status = engine.TicketError
		ft.ticket.StatusMessage = ft.fail
	default:
		ft.ticket.Status = engine.TicketResolved
		ft.ticket.ResolutionDate = time.Now().UnixMilli()
	}
	writeJSON(w, ft.ticket)
}

func (f *fakeEngine) export(w http.ResponseWriter, r *http.Request) {
	target, id := chi.URLParam(r, "export"), chi.URLParam(r, "observation")
	f.mu.Lock()
	defer f.mu.Unlock()
	if target == engine.ExportStructure.String() {
		ref, ok := f.observations[id]
		if !ok {
			http.Error(w, "no such observation", http.StatusNotFound)
			return
		}
		writeJSON(w, ref)
		return
	}
	payload, ok := f.exports[target+"/"+id]
	if !ok {
		http.Error(w, "nothing to export", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", r.Header.Get("Accept"))
	_, _ = w.Write([]byte(payload))
}

func (f *fakeEngine) newTicketLocked(typ engine.TicketType, data map[string]string) engine.Ticket {
	ft := &fakeTicket{
		ticket: engine.Ticket{
			ID:       uuid.NewString(),
			PostDate: time.Now().UnixMilli(),
			Status:   engine.TicketOpen,
			Type:     typ,
			Data:     data,
		},
		after:   f.resolveAfter,
		fail:    f.failNext,
		pending: f.hangNext,
	}
	f.failNext, f.hangNext = "", false
	f.tickets[ft.ticket.ID] = ft
	return ft.ticket
}

func (f *fakeEngine) newContextLocked(req engine.ContextRequest) *engine.ObservationReference {
	ref := &engine.ObservationReference{
		ID:              uuid.NewString(),
		Label:           "context",
		Observable:      req.ContextType,
		ObservationType: goklab.ObservationSubject,
		ChildIDs:        map[string]string{},
	}
	ref.RootContextID = ref.ID
	f.observations[ref.ID] = ref
	return ref
}

func (f *fakeEngine) newObservationLocked(ctx *engine.ObservationReference, urn string) *engine.ObservationReference {
	ref := f.template
	ref.ID = uuid.NewString()
	ref.Observable = urn
	ref.ContextID = ctx.ID
	ref.RootContextID = ctx.ID
	ref.ParentID = ctx.ID
	name := urn
	if i := strings.LastIndex(urn, " named "); i >= 0 {
		name = urn[i+len(" named "):]
	}
	ctx.ChildIDs[name] = ref.ID
	ctx.ChildrenCount++
	f.observations[ref.ID] = &ref
	return &ref
}

// setExport makes target of observation id exportable.
func (f *fakeEngine) setExport(target engine.Export, id, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exports[target.String()+"/"+id] = payload
}

func (f *fakeEngine) lastObservationRequest() engine.ObservationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obsReqs[len(f.obsReqs)-1]
}

func estimateData(id string) map[string]string {
	return map[string]string{"estimate": id, "cost": "12.5", "currency": "KLB", "feasible": "true"}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = wire.Encode(w, v)
}
