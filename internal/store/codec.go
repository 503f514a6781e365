package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/5ALAM/workkflow/internal/graph"
)

// ErrNoEvents is returned when a blob has no top-level "events" array.
var ErrNoEvents = errors.New(`missing "events" array`)

// Document is a decoded workflow blob. It keeps the original bytes so that
// an unchanged or status-only edit can be written back without reformatting.
type Document struct {
	raw   []byte
	steps []graph.Step

	// JSON type of each id as written: a step's own id, and each parent
	// reference keyed by (child, parent). True means a number.
	numeric    map[graph.StepID]bool
	refNumeric map[parentRef]bool
}

type parentRef struct {
	child, parent graph.StepID
}

// Steps returns the decoded steps in blob order.
func (d *Document) Steps() []graph.Step {
	out := make([]graph.Step, len(d.steps))
	copy(out, d.steps)
	return out
}

// Raw returns the bytes the document was decoded from.
func (d *Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Decode parses a `{"events": [...]}` blob. Ids and parent ids may be JSON
// numbers or strings. Unknown status strings are kept as-is.
func Decode(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("decode workflows: invalid JSON")
	}
	events := gjson.GetBytes(data, "events")
	if !events.IsArray() {
		return nil, fmt.Errorf("decode workflows: %w", ErrNoEvents)
	}

	doc := &Document{
		raw:        append([]byte(nil), data...),
		numeric:    make(map[graph.StepID]bool),
		refNumeric: make(map[parentRef]bool),
	}

	var decodeErr error
	for i, ev := range events.Array() {
		if !ev.IsObject() {
			return nil, fmt.Errorf("decode workflows: event %d is not an object", i)
		}
		id, numeric, err := decodeID(ev.Get("id"))
		if err != nil {
			return nil, fmt.Errorf("decode workflows: event %d id: %w", i, err)
		}
		doc.numeric[id] = numeric

		s := graph.Step{
			ID:        id,
			Event:     ev.Get("event").String(),
			Status:    graph.Status(ev.Get("status").String()),
			Owner:     ev.Get("stepOwner").String(),
			Date:      ev.Get("date").String(),
			DueDate:   ev.Get("dueDate").String(),
			Type:      ev.Get("type").String(),
			ParentIDs: []graph.StepID{},
		}
		ev.Get("parent_id").ForEach(func(_, p gjson.Result) bool {
			pid, numeric, err := decodeID(p)
			if err != nil {
				decodeErr = fmt.Errorf("decode workflows: step %s parent_id: %w", id, err)
				return false
			}
			doc.refNumeric[parentRef{child: id, parent: pid}] = numeric
			s.ParentIDs = append(s.ParentIDs, pid)
			return true
		})
		if decodeErr != nil {
			return nil, decodeErr
		}
		doc.steps = append(doc.steps, s)
	}
	return doc, nil
}

// decodeID returns an id in its string form. Numbers are canonicalised, so
// 1, 1.0 and 1e0 all name step "1".
func decodeID(r gjson.Result) (graph.StepID, bool, error) {
	switch r.Type {
	case gjson.Number:
		if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return graph.StepID(strconv.FormatInt(i, 10)), true, nil
		}
		return graph.StepID(strconv.FormatFloat(r.Num, 'f', -1, 64)), true, nil
	case gjson.String:
		if r.Str == "" {
			return "", false, fmt.Errorf("empty id")
		}
		return graph.StepID(r.Str), false, nil
	default:
		return "", false, fmt.Errorf("expected number or string, got %s", r.Type)
	}
}

// Encode serialises steps into a blob.
//
// When steps differ from the document only in status, the original bytes are
// patched in place, so every other byte of the blob is preserved. Any other
// change re-encodes the whole blob, writing ids that were numbers in the
// document as numbers again.
func (d *Document) Encode(steps []graph.Step) ([]byte, error) {
	if d.sameShape(steps) {
		out := d.Raw()
		for i, s := range steps {
			if s.Status == d.steps[i].Status {
				continue
			}
			var err error
			out, err = sjson.SetBytes(out, fmt.Sprintf("events.%d.status", i), string(s.Status))
			if err != nil {
				return nil, fmt.Errorf("patch status of %s: %w", s.ID, err)
			}
		}
		return out, nil
	}

	blob := wireBlob{Events: make([]wireStep, 0, len(steps))}
	for _, s := range steps {
		w := wireStep{
			ID:        d.encodeID(s.ID),
			Event:     s.Event,
			Status:    string(s.Status),
			ParentIDs: make([]json.RawMessage, 0, len(s.ParentIDs)),
			Owner:     s.Owner,
			Date:      s.Date,
			DueDate:   s.DueDate,
			Type:      s.Type,
		}
		for _, p := range s.ParentIDs {
			w.ParentIDs = append(w.ParentIDs, d.encodeRef(s.ID, p))
		}
		blob.Events = append(blob.Events, w)
	}
	out, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode workflows: %w", err)
	}
	return out, nil
}

type wireBlob struct {
	Events []wireStep `json:"events"`
}

type wireStep struct {
	ID        json.RawMessage   `json:"id"`
	Event     string            `json:"event"`
	Status    string            `json:"status"`
	ParentIDs []json.RawMessage `json:"parent_id"`
	Owner     string            `json:"stepOwner,omitempty"`
	Date      string            `json:"date,omitempty"`
	DueDate   string            `json:"dueDate,omitempty"`
	Type      string            `json:"type,omitempty"`
}

func (d *Document) encodeID(id graph.StepID) json.RawMessage {
	return rawID(id, d.numeric[id])
}

// encodeRef keeps the type a reference was written with. New references
// follow the type of the step they point at.
func (d *Document) encodeRef(child, parent graph.StepID) json.RawMessage {
	if numeric, ok := d.refNumeric[parentRef{child: child, parent: parent}]; ok {
		return rawID(parent, numeric)
	}
	return rawID(parent, d.numeric[parent])
}

func rawID(id graph.StepID, numeric bool) json.RawMessage {
	if numeric {
		return json.RawMessage(id)
	}
	b, _ := json.Marshal(string(id))
	return b
}

// sameShape reports whether steps equal the decoded steps in everything but
// status.
func (d *Document) sameShape(steps []graph.Step) bool {
	if len(steps) != len(d.steps) {
		return false
	}
	for i, s := range steps {
		o := d.steps[i]
		if s.ID != o.ID || s.Event != o.Event || s.Owner != o.Owner ||
			s.Date != o.Date || s.DueDate != o.DueDate || s.Type != o.Type ||
			!slices.Equal(s.ParentIDs, o.ParentIDs) {
			return false
		}
	}
	return true
}
