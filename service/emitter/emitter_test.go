package emitter

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/config"
	"github.com/khaledhikmat/exhibit-guide/service/webhook"
)

type recordingEmitter struct {
	events []model.ExhibitEvent
	err    error
	closed bool
}

func (r *recordingEmitter) Emit(evt model.ExhibitEvent) error {
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingEmitter) Close() error {
	r.closed = true
	return nil
}

func testEvent() model.ExhibitEvent {
	return model.ExhibitEvent{
		ID:          "evt-1",
		Label:       "Energy Story",
		Probability: 0.95,
		Camera:      "camera-1",
		Timestamp:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Snapshot:    []byte("not serialized"),
	}
}

func TestEncode(t *testing.T) {
	evt := testEvent()

	data, err := Encode(evt, EncodingJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var asJSON map[string]interface{}
	if err := json.Unmarshal(data, &asJSON); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if asJSON["label"] != "Energy Story" {
		t.Errorf("unexpected json %v", asJSON)
	}
	if _, ok := asJSON["Snapshot"]; ok {
		t.Error("snapshot bytes must not be serialized")
	}

	data, err = Encode(evt, EncodingMsgpack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded model.ExhibitEvent
	if err := msgpack.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid msgpack: %v", err)
	}
	if decoded.Label != evt.Label || decoded.Snapshot != nil {
		t.Errorf("unexpected msgpack event %+v", decoded)
	}

	if _, err := Encode(evt, "xml"); err == nil {
		t.Error("expected unsupported encoding error")
	}
}

func TestTopic(t *testing.T) {
	if got := Topic("museum", "camera-1"); got != "museum/exhibits/camera-1" {
		t.Errorf("unexpected topic %q", got)
	}
	if got := Topic("", "camera-1"); got != "exhibits/camera-1" {
		t.Errorf("unexpected topic %q", got)
	}
}

func TestMultiEmitsToAll(t *testing.T) {
	failing := &recordingEmitter{err: errors.New("broker down")}
	ok := &recordingEmitter{}
	svc := NewMulti(failing, ok)

	if err := svc.Emit(testEvent()); err == nil {
		t.Error("expected joined error")
	}
	if len(ok.events) != 1 {
		t.Errorf("healthy emitter should still receive the event")
	}

	svc.Close()
	if !failing.closed || !ok.closed {
		t.Error("expected all emitters closed")
	}

	if err := NewMulti().Emit(testEvent()); err != nil {
		t.Errorf("empty emitter should not fail: %v", err)
	}
}

func TestWebhookEmitter(t *testing.T) {
	var got model.ExhibitEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	svc := NewWebhook(webhook.NewHTTP(srv.URL, time.Second))
	if err := svc.Emit(testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "evt-1" || got.Camera != "camera-1" {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestNewSkipsUnreachableBroker(t *testing.T) {
	var got model.ExhibitEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	orig := newMQTT
	defer func() { newMQTT = orig }()
	newMQTT = func(config.EmitterParameters) (IService, error) {
		return nil, errors.New("mqtt connection timeout")
	}

	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MQTT_BROKER", "tcp://broker.invalid:1883")
	t.Setenv("WEBHOOK_URL", srv.URL)
	cfg, err := config.New()
	if err != nil {
		t.Fatal(err)
	}

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("an unreachable broker must not fail startup: %v", err)
	}
	if err := svc.Emit(testEvent()); err != nil {
		t.Fatalf("webhook emitter should still publish: %v", err)
	}
	if got.ID != "evt-1" {
		t.Errorf("unexpected event %+v", got)
	}
}
