package emitter

import (
	"errors"
	"log/slog"
	"time"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/config"
	"github.com/khaledhikmat/exhibit-guide/service/lgr"
	"github.com/khaledhikmat/exhibit-guide/service/webhook"
)

const webhookTimeout = 5 * time.Second

// newMQTT is swapped in tests.
var newMQTT = NewMQTT

type multiService struct {
	emitters []IService
}

// New builds the emitters enabled in the configuration. An emitter that cannot
// start is left out. With none enabled, events are only logged.
func New(cfgsvc config.IService) (IService, error) {
	params := cfgsvc.GetEmitterParameters()
	emitters := []IService{}

	if params.MQTTBroker != "" {
		m, err := newMQTT(params)
		if err != nil {
			lgr.Logger.Error("emitter.New - mqtt emitter disabled", slog.String("broker", params.MQTTBroker), slog.Any("error", err))
		} else {
			emitters = append(emitters, m)
		}
	}

	if params.WebhookURL != "" {
		emitters = append(emitters, NewWebhook(webhook.NewHTTP(params.WebhookURL, webhookTimeout)))
	}

	if len(emitters) == 0 {
		lgr.Logger.Info("emitter.New - no MQTT broker or webhook configured, events are only logged")
	}

	return NewMulti(emitters...), nil
}

func NewMulti(emitters ...IService) IService {
	return &multiService{
		emitters: emitters,
	}
}

// Emit publishes to every emitter, even when one of them fails.
func (svc *multiService) Emit(evt model.ExhibitEvent) error {
	var errs []error
	for _, e := range svc.emitters {
		if err := e.Emit(evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (svc *multiService) Close() error {
	var errs []error
	for _, e := range svc.emitters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
