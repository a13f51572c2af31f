package data

import "github.com/khaledhikmat/exhibit-guide/model"

type IService interface {
	NewExhibitEvent(evt model.ExhibitEvent) error
	RetrieveExhibitEvents(limit int) ([]model.ExhibitEvent, error)
	RetrieveExhibitEventsByLabel(label string, limit int) ([]model.ExhibitEvent, error)
	NewDescription(d model.Description) error
	RetrieveDescriptions(limit int) ([]model.Description, error)

	NewError(err interface{}) error
	NewDetectorStats(stats model.DetectorStats) error
	NewFramerStats(stats model.FramerStats) error
	NewAlerterStats(stats model.AlerterStats) error

	Close() error
}
