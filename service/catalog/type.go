package catalog

import "github.com/khaledhikmat/exhibit-guide/model"

type IService interface {
	RetrieveExhibits() []model.Exhibit
	// RetrieveExhibitByLabel resolves a detected label to its catalog entry.
	RetrieveExhibitByLabel(label string) (model.Exhibit, bool)
}
