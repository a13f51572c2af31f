package mission

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Default is the mission shipped with the guide.
func Default() Mission {
	return Mission{
		ID:    "mission-future-scientist",
		Title: "Mission: Become a Future Scientist",
		Badge: "Space Scientist",
		Zones: []Zone{
			{
				ID:          "zone-1",
				Label:       "Everyday Science",
				SpaceName:   "Everyday Science",
				Question:    "Which of the following sub-exhibits can be found in the Everyday Science exhibition?",
				Options:     []string{"Kitchen Science", "Space Odyssey", "Dino Pit", "Robotics Lab"},
				AnswerIndex: 0,
				FunFact:     "Everyday Science shows how simple things you use daily, like air, light, heat and motion, follow science principles you can see and try for yourself.",
				WrongHint:   "Almost! Let's go to this exhibit and look for the clue.",
			},
			{
				ID:          "zone-2",
				Label:       "HALL A",
				SpaceName:   "HALL A",
				Question:    "What does the Urban Mutations exhibition cover?",
				Options:     []string{"Mutants", "Urban Animals", "Evolution", "Urban Design"},
				AnswerIndex: 3,
				FunFact:     "Urban Mutations shows how cities evolve over time, revealing how architecture, technology and human needs shape urban life.",
				WrongHint:   "Not quite. Look around the area for the answer.",
			},
			{
				ID:          "zone-3",
				Label:       "Hall B",
				SpaceName:   "Hall B",
				Question:    "What is the name of the main character in the Climate Action Show?",
				Options:     []string{"Sheepy", "Ducky", "Mooey", "Cheepy"},
				AnswerIndex: 0,
				FunFact:     "The Climate Action Show teaches how everyday actions, like saving energy and reducing waste, help protect Earth.",
				WrongHint:   "Close. Head to the exhibit show and look for the big clue.",
			},
		},
	}
}

// Load reads a mission from a YAML file. An empty path yields Default.
func Load(path string) (Mission, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Mission{}, xerrors.Errorf("failed to read mission file %s: %w", path, err)
	}

	var m Mission
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Mission{}, xerrors.Errorf("failed to parse mission file %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return Mission{}, xerrors.Errorf("invalid mission file %s: %w", path, err)
	}

	return m, nil
}

func (m Mission) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("mission id is required")
	}
	if len(m.Zones) == 0 {
		return fmt.Errorf("mission %s has no zones", m.ID)
	}

	seen := map[string]bool{}
	for _, z := range m.Zones {
		if z.ID == "" {
			return fmt.Errorf("zone id is required")
		}
		if seen[z.ID] {
			return fmt.Errorf("duplicate zone id %s", z.ID)
		}
		seen[z.ID] = true

		if len(z.Options) == 0 {
			return fmt.Errorf("zone %s has no options", z.ID)
		}
		if z.AnswerIndex < 0 || z.AnswerIndex >= len(z.Options) {
			return fmt.Errorf("zone %s answer index %d out of range", z.ID, z.AnswerIndex)
		}
	}

	return nil
}

func (m Mission) Zone(id string) (Zone, bool) {
	for _, z := range m.Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// ZoneBySpace finds the zone bound to a map space name.
func (m Mission) ZoneBySpace(name string) (Zone, bool) {
	n := norm(name)
	if n == "" {
		return Zone{}, false
	}

	for _, z := range m.Zones {
		if norm(z.SpaceName) == n {
			return z, true
		}
	}
	return Zone{}, false
}

// norm trims, collapses inner whitespace and lower-cases.
func norm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
