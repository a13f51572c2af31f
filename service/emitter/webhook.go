package emitter

import (
	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/webhook"
)

type webhookService struct {
	whsvc webhook.IService
}

func NewWebhook(whsvc webhook.IService) IService {
	return &webhookService{
		whsvc: whsvc,
	}
}

func (svc *webhookService) Emit(evt model.ExhibitEvent) error {
	return svc.whsvc.Post(evt)
}

func (svc *webhookService) Close() error {
	return nil
}
