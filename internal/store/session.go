package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/5ALAM/workkflow/internal/graph"
	"github.com/5ALAM/workkflow/internal/layout"
	"github.com/5ALAM/workkflow/internal/transition"
	"github.com/5ALAM/workkflow/internal/view"
)

// Source says where a session's graph was loaded from.
type Source string

const (
	SourceStore   Source = "store"
	SourceDefault Source = "default"
)

// Session owns the workflow graph for its lifetime. All mutations go through
// it; each accepted mutation is written to the store before it becomes
// visible. Layout is cached and only recomputed after structural changes.
type Session struct {
	id     string
	store  Store
	opts   layout.Options
	source Source

	mu     sync.Mutex
	doc    *Document
	graph  *graph.Graph
	layout *layout.Result
}

// Open loads the blob from st, falling back to the bundled default dataset
// when nothing has been persisted, and validates it.
func Open(st Store, opts layout.Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("layout options: %w", err)
	}

	source := SourceStore
	data, err := st.Load()
	if errors.Is(err, ErrNotFound) {
		slog.Info("no saved workflow, using default dataset")
		data = DefaultDataset()
		source = SourceDefault
	} else if err != nil {
		return nil, fmt.Errorf("load workflows: %w", err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(doc.Steps())
	if err != nil {
		return nil, fmt.Errorf("validate workflows: %w", err)
	}

	s := &Session{
		id:     uuid.NewString(),
		store:  st,
		opts:   opts,
		source: source,
		doc:    doc,
		graph:  g,
	}
	slog.Debug("session opened", "session", s.id, "source", source, "steps", g.Len())
	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Source returns where the graph was loaded from.
func (s *Session) Source() Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Graph returns the current graph. Graphs are never modified in place, so
// the result is a stable snapshot.
func (s *Session) Graph() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Layout returns the layout of the current graph, computing it on first use.
func (s *Session) Layout() (*layout.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layoutLocked()
}

func (s *Session) layoutLocked() (*layout.Result, error) {
	if s.layout != nil {
		return s.layout, nil
	}
	res, err := layout.Compute(s.graph, s.opts)
	if err != nil {
		return nil, err
	}
	s.layout = res
	return res, nil
}

// Views builds renderer views of the current graph.
func (s *Session) Views() (*view.Views, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.layoutLocked()
	if err != nil {
		return nil, err
	}
	v, err := view.Build(s.graph, res)
	if err != nil {
		return nil, err
	}
	v.Metadata.ID = s.id
	return v, nil
}

// Check validates a transition against the current graph without applying
// it.
func (s *Session) Check(id graph.StepID, requested string) (graph.Status, error) {
	return transition.Check(s.Graph(), id, requested)
}

// Transition applies a status change and persists it. On any failure the
// session keeps its previous graph and the current graph is returned with
// the error.
func (s *Session) Transition(id graph.StepID, requested string) (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := transition.Apply(s.graph, id, requested)
	if err != nil {
		slog.Debug("transition rejected", "step", id, "status", requested, "error", err)
		return s.graph, err
	}
	if err := s.persistLocked(next); err != nil {
		return s.graph, err
	}

	s.graph = next
	slog.Info("step status changed", "step", id, "status", requested)
	return next, nil
}

// Replace swaps in a new set of steps. The steps are validated first; the
// layout cache is dropped.
func (s *Session) Replace(steps []graph.Step) error {
	g, err := graph.Build(steps)
	if err != nil {
		return fmt.Errorf("validate workflows: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLocked(g); err != nil {
		return err
	}
	s.graph = g
	s.layout = nil
	slog.Info("workflow replaced", "steps", g.Len())
	return nil
}

func (s *Session) persistLocked(g *graph.Graph) error {
	data, err := s.doc.Encode(g.Steps())
	if err != nil {
		return err
	}
	if err := s.store.Save(data); err != nil {
		return fmt.Errorf("save workflows: %w", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return err
	}
	s.doc = doc
	s.source = SourceStore
	return nil
}
