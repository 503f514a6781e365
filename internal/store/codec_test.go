package store

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/5ALAM/workkflow/internal/graph"
)

const mixedBlob = `{"events":[{"id":1,"event":"Draft","status":"finished","parent_id":[],"stepOwner":"ann","extra":{"keep":true}},{"id":"b","event":"Review","status":"notStarted","parent_id":[1],"date":"2024-01-02","dueDate":"2024-01-09","type":"output"}],"version":3}`

func TestDecode_MixedIDs(t *testing.T) {
	doc, err := Decode([]byte(mixedBlob))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	steps := doc.Steps()
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}

	want := graph.Step{
		ID:        "b",
		Event:     "Review",
		Status:    graph.StatusNotStarted,
		Date:      "2024-01-02",
		DueDate:   "2024-01-09",
		Type:      "output",
		ParentIDs: []graph.StepID{"1"},
	}
	if !reflect.DeepEqual(steps[1], want) {
		t.Errorf("expected %+v, got %+v", want, steps[1])
	}
	if steps[0].ID != "1" || steps[0].Owner != "ann" {
		t.Errorf("unexpected first step %+v", steps[0])
	}
	if len(steps[0].ParentIDs) != 0 || steps[0].ParentIDs == nil {
		t.Errorf("expected empty non-nil parents, got %#v", steps[0].ParentIDs)
	}
}

func TestDecode_UnknownStatusKept(t *testing.T) {
	doc, err := Decode([]byte(`{"events":[{"id":1,"event":"x","status":"archived","parent_id":[]}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s := doc.Steps()[0]
	if s.Status != "archived" || s.Status.Known() {
		t.Errorf("expected unknown status archived, got %q", s.Status)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"invalid json", `{"events": [`},
		{"no events", `{"steps": []}`},
		{"events not array", `{"events": {}}`},
		{"event not object", `{"events": [1]}`},
		{"missing id", `{"events": [{"event": "x", "parent_id": []}]}`},
		{"bool id", `{"events": [{"id": true, "parent_id": []}]}`},
		{"empty id", `{"events": [{"id": "", "parent_id": []}]}`},
		{"null parent", `{"events": [{"id": 1, "parent_id": [null]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.blob)); err == nil {
				t.Errorf("expected error for %s", tt.blob)
			}
		})
	}

	_, err := Decode([]byte(`{"steps": []}`))
	if !errors.Is(err, ErrNoEvents) {
		t.Errorf("expected ErrNoEvents, got %v", err)
	}
}

func TestEncode_RoundTripUnchanged(t *testing.T) {
	for name, blob := range map[string][]byte{
		"mixed":   []byte(mixedBlob),
		"default": DefaultDataset(),
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := Decode(blob)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			out, err := doc.Encode(doc.Steps())
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if string(out) != string(blob) {
				t.Errorf("round trip changed the blob:\n%s\n%s", blob, out)
			}
		})
	}
}

func TestEncode_StatusPatchPreservesOtherBytes(t *testing.T) {
	doc, err := Decode([]byte(mixedBlob))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	steps := doc.Steps()
	steps[1].Status = graph.StatusInProgress

	out, err := doc.Encode(steps)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := strings.Replace(mixedBlob, `"status":"notStarted"`, `"status":"inProgress"`, 1)
	if string(out) != want {
		t.Errorf("expected only the status to change:\nwant %s\ngot  %s", want, out)
	}
}

func TestEncode_StructuralChangeKeepsNumericIDs(t *testing.T) {
	doc, err := Decode([]byte(mixedBlob))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	steps := append(doc.Steps(), graph.Step{
		ID:     "c",
		Event:  "Ship",
		Status: graph.StatusNotStarted,
	})

	out, err := doc.Encode(steps)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if got := gjson.GetBytes(out, "events.0.id"); got.Type != gjson.Number || got.Int() != 1 {
		t.Errorf("expected numeric id 1, got %s", got.Raw)
	}
	if got := gjson.GetBytes(out, "events.1.id"); got.Type != gjson.String || got.Str != "b" {
		t.Errorf("expected string id b, got %s", got.Raw)
	}
	if got := gjson.GetBytes(out, "events.1.parent_id.0"); got.Type != gjson.Number {
		t.Errorf("expected numeric parent id, got %s", got.Raw)
	}
	if got := gjson.GetBytes(out, "events.2.parent_id"); !got.IsArray() || len(got.Array()) != 0 {
		t.Errorf("expected empty parent_id array, got %s", got.Raw)
	}
	if got := gjson.GetBytes(out, "events.2.stepOwner"); got.Exists() {
		t.Errorf("expected empty owner to be omitted, got %s", got.Raw)
	}

	again, err := Decode(out)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if !reflect.DeepEqual(again.Steps()[:2], doc.Steps()) {
		t.Errorf("existing steps changed:\n%+v\n%+v", doc.Steps(), again.Steps()[:2])
	}
}

func TestEncode_KeepsIDTypePerOccurrence(t *testing.T) {
	blob := `{"events":[{"id":"2","event":"A","status":"finished","parent_id":[]},{"id":3,"event":"B","status":"notStarted","parent_id":[2]}]}`
	doc, err := Decode([]byte(blob))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	steps := append(doc.Steps(), graph.Step{
		ID:        "4",
		Event:     "C",
		Status:    graph.StatusNotStarted,
		ParentIDs: []graph.StepID{"2", "3"},
	})

	out, err := doc.Encode(steps)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	checks := []struct {
		path    string
		numeric bool
	}{
		{"events.0.id", false},
		{"events.1.id", true},
		{"events.1.parent_id.0", true},
		{"events.2.id", false},
		{"events.2.parent_id.0", false}, // follows step "2"
		{"events.2.parent_id.1", true},  // follows step 3
	}
	for _, c := range checks {
		got := gjson.GetBytes(out, c.path)
		if (got.Type == gjson.Number) != c.numeric {
			t.Errorf("%s: expected numeric=%v, got %s", c.path, c.numeric, got.Raw)
		}
	}
}

func TestDecode_CanonicalNumericIDs(t *testing.T) {
	doc, err := Decode([]byte(`{"events":[{"id":1.0,"event":"A","status":"finished","parent_id":[]},{"id":2,"event":"B","status":"notStarted","parent_id":[1]},{"id":3,"event":"C","status":"notStarted","parent_id":[1e0]}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	steps := doc.Steps()
	if steps[0].ID != "1" {
		t.Errorf("expected id 1, got %q", steps[0].ID)
	}
	if steps[1].ParentIDs[0] != "1" || steps[2].ParentIDs[0] != "1" {
		t.Errorf("expected both parents to be 1, got %v and %v", steps[1].ParentIDs, steps[2].ParentIDs)
	}
	if _, err := graph.Build(steps); err != nil {
		t.Errorf("build: %v", err)
	}
}
