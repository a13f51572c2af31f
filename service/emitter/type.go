package emitter

import "github.com/khaledhikmat/exhibit-guide/model"

// IService fans confirmed exhibit events out to the rest of the app.
type IService interface {
	Emit(evt model.ExhibitEvent) error
	Close() error
}
