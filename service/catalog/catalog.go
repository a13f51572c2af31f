package catalog

import (
	"os"
	"strings"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/config"
)

type catalogFile struct {
	Exhibits []model.Exhibit `yaml:"exhibits"`
}

type memoryService struct {
	exhibits []model.Exhibit
}

// New loads the catalog file when one is configured, else the built-in list.
func New(cfgsvc config.IService) (IService, error) {
	path := cfgsvc.GetCatalogFile()
	if path == "" {
		return NewMemory(builtin), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, xerrors.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	for i, e := range f.Exhibits {
		if strings.TrimSpace(e.Label) == "" {
			return nil, xerrors.Errorf("catalog entry %d has no label", i)
		}
		if e.Title == "" {
			f.Exhibits[i].Title = e.Label
		}
	}

	return NewMemory(f.Exhibits), nil
}

func NewMemory(exhibits []model.Exhibit) IService {
	return &memoryService{
		exhibits: exhibits,
	}
}

func (svc *memoryService) RetrieveExhibits() []model.Exhibit {
	out := make([]model.Exhibit, len(svc.exhibits))
	copy(out, svc.exhibits)
	return out
}

// RetrieveExhibitByLabel prefers an exact case-insensitive match and falls
// back to either label containing the other, since model tags are often
// shortened exhibit names.
func (svc *memoryService) RetrieveExhibitByLabel(label string) (model.Exhibit, bool) {
	d := normalize(label)
	if d == "" {
		return model.Exhibit{}, false
	}

	for _, e := range svc.exhibits {
		if normalize(e.Label) == d {
			return e, true
		}
	}

	for _, e := range svc.exhibits {
		l := normalize(e.Label)
		if strings.Contains(l, d) || strings.Contains(d, l) {
			return e, true
		}
	}

	return model.Exhibit{}, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
