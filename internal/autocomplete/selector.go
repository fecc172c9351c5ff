package autocomplete

import (
	"context"
	"errors"
	"sync"

	"rideshare_backend/platform/logger"
)

var errRemoteUnavailable = errors.New("remote source unavailable")

// Request is a remote lookup the selector wants performed. The zero value
// means no remote call is needed for the current query.
type Request struct {
	Token uint64
	Query string
	Scope Scope
}

// Valid reports whether the request should be dispatched.
func (r Request) Valid() bool {
	return r.Token != 0
}

// Response carries a remote lookup result back to the selector that issued
// it. Token ties it to the request it answers.
type Response struct {
	Token      uint64
	Query      string
	Candidates []Candidate
	Err        error
}

// Option configures a Selector.
type Option func(*Selector)

// WithRemote attaches an already-initialised remote source.
func WithRemote(src RemoteSource) Option {
	return func(s *Selector) {
		if src == nil {
			return
		}
		s.remote = src
		s.readiness = RemoteReady
		s.initDone = true
	}
}

// WithRemoteInit defers remote source construction to Init. Until Init
// succeeds the selector serves local candidates only.
func WithRemoteInit(init func(ctx context.Context) (RemoteSource, error)) Option {
	return func(s *Selector) {
		s.remoteInit = init
	}
}

// WithDataset sets the local fallback dataset.
func WithDataset(d Dataset) Option {
	return func(s *Selector) {
		s.dataset = d
	}
}

// WithScope sets the initial lookup scope.
func WithScope(scope Scope) Option {
	return func(s *Selector) {
		s.scope = scope.Clone()
	}
}

// WithLogger sets the diagnostic logger for degraded remote lookups.
func WithLogger(log *logger.Logger) Option {
	return func(s *Selector) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPointerBus makes the selector close when a pointer-down lands outside
// bounds while its list is open.
func WithPointerBus(bus *PointerBus, bounds Rect) Option {
	return func(s *Selector) {
		s.bus = bus
		s.bounds = bounds
	}
}

// WithTransitionHook observes every state change, including the transient
// StateCommitted.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(s *Selector) {
		s.onTransition = fn
	}
}

type dependent struct {
	child       *Selector
	scopeKey    string
	parentField string
}

// Selector is one autocomplete control. All methods are safe for concurrent
// use; remote lookups run outside the lock and are reconciled by Apply.
type Selector struct {
	name    string
	target  *Target
	dataset Dataset
	log     *logger.Logger

	onTransition func(from, to State)

	mu         sync.Mutex
	remote     RemoteSource
	remoteInit func(ctx context.Context) (RemoteSource, error)
	initDone   bool
	readiness  Readiness
	scope      Scope
	query      string
	state      State
	visible    []Candidate
	origin     Origin
	seq        uint64
	dependents []dependent
	bus        *PointerBus
	bounds     Rect
	unregister func()
	disposed   bool
}

// New builds a selector committing into target. A nil target gets a fresh one.
func New(name string, target *Target, opts ...Option) *Selector {
	if target == nil {
		target = NewTarget()
	}
	s := &Selector{
		name:    name,
		target:  target,
		dataset: StaticDataset(nil),
		log:     logger.NewNop(),
		scope:   Scope{},
		state:   StateClosed,
		origin:  OriginLocal,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init runs the deferred remote initialiser once. A failure marks the remote
// unavailable for the selector's lifetime and is not retried.
func (s *Selector) Init(ctx context.Context) Readiness {
	s.mu.Lock()
	if s.initDone || s.remoteInit == nil {
		r := s.readiness
		s.mu.Unlock()
		return r
	}
	s.initDone = true
	init := s.remoteInit
	s.mu.Unlock()

	src, err := init(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || src == nil {
		reason := "remote source returned nil"
		if err != nil {
			reason = err.Error()
		}
		s.log.LookupDegraded(s.name, "", "init failed: "+reason)
		s.readiness = RemoteUnavailable
		return s.readiness
	}
	s.remote = src
	s.readiness = RemoteReady
	return s.readiness
}

// SetQuery stores typed text, opens the list and recomputes candidates.
// Emptying a non-empty query clears this selector's target and resets its
// dependents. The returned request must be passed to Fetch and Apply when
// valid.
func (s *Selector) SetQuery(text string) Request {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return Request{}
	}
	var resets []dependent
	if text == "" && s.query != "" {
		s.target.Reset()
		resets = s.dependents
	}
	s.query = text
	req := s.recomputeLocked()
	s.mu.Unlock()

	for _, dep := range resets {
		dep.child.rescope(dep.scopeKey, "")
	}
	return req
}

// Focus opens the list for the current query.
func (s *Selector) Focus() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return Request{}
	}
	return s.recomputeLocked()
}

// Fetch performs a remote lookup. It does not touch selector state and may
// run on any goroutine.
func (s *Selector) Fetch(ctx context.Context, req Request) Response {
	if !req.Valid() {
		return Response{}
	}
	s.mu.Lock()
	remote := s.remote
	s.mu.Unlock()

	resp := Response{Token: req.Token, Query: req.Query}
	if remote == nil {
		resp.Err = errRemoteUnavailable
		return resp
	}
	resp.Candidates, resp.Err = remote.Lookup(ctx, req.Query, req.Scope)
	return resp
}

// Apply reconciles a remote response. Responses for anything but the most
// recently issued request are discarded; the return value reports whether
// the response was used.
func (s *Selector) Apply(resp Response) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resp.Token == 0 || resp.Token != s.seq || s.state != StateOpenLoading {
		s.log.Debug("discarding stale suggestion response",
			"selector", s.name, "token", resp.Token, "latest", s.seq)
		return false
	}

	if resp.Err != nil {
		s.log.LookupDegraded(s.name, resp.Query, resp.Err.Error())
		s.readiness = RemoteErrored
		s.transitionLocked(StateOpenLocalFallback)
		return true
	}

	s.readiness = RemoteReady
	visible, origin := Choose(resp.Candidates, nil, s.visible)
	s.visible = visible
	s.origin = origin
	if origin == OriginRemote {
		s.transitionLocked(StateOpenRemoteResults)
	} else {
		s.transitionLocked(StateOpenLocalFallback)
	}
	return true
}

// Refresh is SetQuery followed by a synchronous Fetch and Apply.
func (s *Selector) Refresh(ctx context.Context, text string) State {
	req := s.SetQuery(text)
	if req.Valid() {
		s.Apply(s.Fetch(ctx, req))
	}
	return s.State()
}

// Select commits candidate into the target, clears the query and closes the
// list. Remote and local candidates take the same path. A candidate with a
// DetailsRef is resolved first; if that fails its own fields are committed.
// A selection superseded while its details resolve is dropped and Select
// returns nil.
func (s *Selector) Select(ctx context.Context, candidate Candidate) Fields {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.seq++
	token := s.seq
	remote := s.remote
	s.mu.Unlock()

	fields := candidate.Fields.Clone()
	if candidate.DetailsRef != "" && remote != nil {
		details, err := remote.ResolveDetails(ctx, candidate.DetailsRef)
		if err != nil {
			s.log.LookupDegraded(s.name, candidate.DetailsRef, "resolve details: "+err.Error())
		} else {
			for key, value := range details {
				fields[key] = value
			}
		}
	}

	s.mu.Lock()
	if s.disposed || token != s.seq {
		s.mu.Unlock()
		return nil
	}
	s.target.Apply(fields)
	s.query = ""
	s.transitionLocked(StateCommitted)
	s.closeLocked()
	deps := s.dependents
	s.mu.Unlock()

	for _, dep := range deps {
		dep.child.rescope(dep.scopeKey, fields[dep.parentField])
	}
	return fields
}

// Clear empties the query and the target and resets dependents. An open list
// stays open showing the full local dataset.
func (s *Selector) Clear() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.query = ""
	s.target.Reset()
	if s.state.IsOpen() {
		s.recomputeLocked()
	} else {
		s.seq++
	}
	deps := s.dependents
	s.mu.Unlock()

	for _, dep := range deps {
		dep.child.rescope(dep.scopeKey, "")
	}
}

// Close hides the list without committing. Outstanding lookups become stale.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.closeLocked()
}

// PointerDown closes the list when the point is outside the control.
func (s *Selector) PointerDown(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsOpen() || s.bounds.Contains(x, y) {
		return
	}
	s.seq++
	s.closeLocked()
}

// SetBounds updates the control's region for outside-click detection.
func (s *Selector) SetBounds(r Rect) {
	s.mu.Lock()
	s.bounds = r
	s.mu.Unlock()
}

// Dispose closes the list and releases the pointer listener. The selector
// ignores further input.
func (s *Selector) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.closeLocked()
	s.disposed = true
}

// BindDependent makes child's scope follow this selector: committing copies
// parentField into child's scope under scopeKey, clearing unsets it. Either
// way the child's target and candidate list are emptied.
func (s *Selector) BindDependent(child *Selector, scopeKey, parentField string) {
	s.mu.Lock()
	s.dependents = append(s.dependents, dependent{child: child, scopeKey: scopeKey, parentField: parentField})
	s.mu.Unlock()
}

func (s *Selector) rescope(key, value string) {
	s.mu.Lock()
	s.seq++
	scope := s.scope.Clone()
	if value == "" {
		delete(scope, key)
	} else {
		scope[key] = value
	}
	s.scope = scope
	s.query = ""
	s.target.Reset()
	s.closeLocked()
	deps := s.dependents
	s.mu.Unlock()

	for _, dep := range deps {
		dep.child.rescope(dep.scopeKey, "")
	}
}

// recomputeLocked opens the list with local candidates and, if the remote
// qualifies, issues a new request token.
func (s *Selector) recomputeLocked() Request {
	s.seq++
	local := FilterLocal(s.query, s.dataset.Candidates(s.scope))
	s.visible = local
	s.origin = OriginLocal
	s.registerLocked()

	if s.remote != nil && s.readiness != RemoteUnavailable && QualifiesForRemote(s.query) {
		s.transitionLocked(StateOpenLoading)
		return Request{Token: s.seq, Query: s.query, Scope: s.scope.Clone()}
	}
	s.transitionLocked(StateOpenLocalFallback)
	return Request{}
}

func (s *Selector) closeLocked() {
	s.visible = nil
	s.origin = OriginLocal
	if s.unregister != nil {
		s.unregister()
		s.unregister = nil
	}
	s.transitionLocked(StateClosed)
}

func (s *Selector) registerLocked() {
	if s.bus == nil || s.unregister != nil {
		return
	}
	s.unregister = s.bus.Register(s.PointerDown)
}

func (s *Selector) transitionLocked(to State) {
	from := s.state
	s.state = to
	if s.onTransition != nil && from != to {
		s.onTransition(from, to)
	}
}

// Name returns the selector's name.
func (s *Selector) Name() string { return s.name }

// Target returns the target the selector commits into.
func (s *Selector) Target() *Target { return s.target }

// State returns the current state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Visible returns a copy of the visible candidate list.
func (s *Selector) Visible() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Candidate, len(s.visible))
	copy(out, s.visible)
	return out
}

// Origin reports where the visible list came from.
func (s *Selector) Origin() Origin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

// Query returns the current raw text.
func (s *Selector) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Readiness returns the remote source readiness.
func (s *Selector) Readiness() Readiness {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readiness
}

// Scope returns a copy of the current lookup scope.
func (s *Selector) Scope() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope.Clone()
}
