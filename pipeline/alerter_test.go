package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/catalog"
)

type fakeData struct {
	events       []model.ExhibitEvent
	descriptions []model.Description
	err          error
}

func (f *fakeData) NewExhibitEvent(evt model.ExhibitEvent) error {
	f.events = append(f.events, evt)
	return f.err
}
func (f *fakeData) RetrieveExhibitEvents(int) ([]model.ExhibitEvent, error) { return f.events, nil }
func (f *fakeData) RetrieveExhibitEventsByLabel(string, int) ([]model.ExhibitEvent, error) {
	return f.events, nil
}
func (f *fakeData) NewDescription(d model.Description) error {
	f.descriptions = append(f.descriptions, d)
	return nil
}
func (f *fakeData) RetrieveDescriptions(int) ([]model.Description, error) { return f.descriptions, nil }
func (f *fakeData) NewError(interface{}) error                            { return nil }
func (f *fakeData) NewDetectorStats(model.DetectorStats) error            { return nil }
func (f *fakeData) NewFramerStats(model.FramerStats) error                { return nil }
func (f *fakeData) NewAlerterStats(model.AlerterStats) error              { return nil }
func (f *fakeData) Close() error                                          { return nil }

type fakeStorage struct {
	stored map[string][]byte
}

func (f *fakeStorage) StoreSnapshot(name string, jpeg []byte) (string, error) {
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.stored[name] = jpeg
	return "/snapshots/" + name + ".jpg", nil
}

func (f *fakeStorage) Open(name string) (string, error) {
	return name, nil
}

type fakeEmitter struct {
	events []model.ExhibitEvent
	err    error
}

func (f *fakeEmitter) Emit(evt model.ExhibitEvent) error {
	f.events = append(f.events, evt)
	return f.err
}

func (f *fakeEmitter) Close() error {
	return nil
}

func newTestAlerter(emitErr error) (*alerter, *fakeData, *fakeEmitter, *bytes.Buffer) {
	datasvc := &fakeData{}
	emit := &fakeEmitter{err: emitErr}
	log := &bytes.Buffer{}

	a := &alerter{
		svcs: ServicesFactory{
			DataSvc:    datasvc,
			EmitterSvc: emit,
			StorageSvc: &fakeStorage{},
			CatalogSvc: catalog.NewMemory([]model.Exhibit{
				{Label: "Energy Story", Title: "Energy Story", ShortDescription: "Where energy comes from."},
			}),
		},
		detectionsLog: log,
	}
	return a, datasvc, emit, log
}

func TestAlerterHandle(t *testing.T) {
	a, datasvc, emit, log := newTestAlerter(nil)

	errs := a.handle(model.ExhibitEvent{
		ID:          "evt-1",
		Label:       "energy story",
		Probability: 0.95,
		Camera:      "camera-1",
		Timestamp:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Snapshot:    []byte("jpeg"),
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if len(datasvc.events) != 1 || len(emit.events) != 1 {
		t.Fatalf("expected event stored and emitted once")
	}

	evt := emit.events[0]
	if evt.Title != "Energy Story" || evt.ShortDescription != "Where energy comes from." {
		t.Errorf("event not enriched from catalog: %+v", evt)
	}
	if evt.SnapshotURL != "/snapshots/evt-1.jpg" {
		t.Errorf("unexpected snapshot url %q", evt.SnapshotURL)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(log.Bytes()), &entry); err != nil {
		t.Fatalf("detections log is not a json line: %v", err)
	}
	if entry["label"] != "energy story" || entry["camera"] != "camera-1" {
		t.Errorf("unexpected log entry %v", entry)
	}

	if s := a.stats(time.Now().Unix()); s.Alerts != 1 || s.Errors != 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestAlerterHandleKeepsGoingOnFailures(t *testing.T) {
	a, datasvc, emit, _ := newTestAlerter(errors.New("broker down"))
	datasvc.err = errors.New("db locked")

	errs := a.handle(model.ExhibitEvent{ID: "evt-2", Label: "Unknown Hall", Camera: "camera-1"})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if len(emit.events) != 1 {
		t.Errorf("emit should still be attempted after a storage failure")
	}
	if emit.events[0].Title != "Unknown Hall" {
		t.Errorf("unknown label should fall back to itself as title, got %q", emit.events[0].Title)
	}

	if s := a.stats(time.Now().Unix()); s.PublishErrors != 1 || s.Errors != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}
