// Package seed loads drip campaign definitions from a YAML file at
// startup and upserts them into storage. Operators edit the file to tune
// campaigns; edits affect future enrollments only.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"expoconnect_backend/internal/drip/domain"
	"expoconnect_backend/internal/drip/repository"
	"expoconnect_backend/platform/logger"
)

type seedFile struct {
	Drips []seedDrip `yaml:"drips"`
}

type seedDrip struct {
	Name  string     `yaml:"name"`
	Steps []seedStep `yaml:"steps"`
}

type seedStep struct {
	Template  string `yaml:"template"`
	DayOffset int    `yaml:"day_offset"`
	TimeOfDay string `yaml:"time_of_day"`
}

// Load reads the definitions file and upserts every campaign. A missing
// file is not an error; the admin API can still create definitions later.
func Load(ctx context.Context, path string, repo repository.DripRepository, log *logger.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("drip definitions file not found, skipping seed", "path", path)
			return nil
		}
		return fmt.Errorf("read drip definitions: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse drip definitions: %w", err)
	}

	for _, drip := range file.Drips {
		if err := validate(drip); err != nil {
			return fmt.Errorf("drip %q: %w", drip.Name, err)
		}

		steps := make([]domain.Step, 0, len(drip.Steps))
		for i, s := range drip.Steps {
			steps = append(steps, domain.Step{
				Template:  s.Template,
				DayOffset: s.DayOffset,
				TimeOfDay: s.TimeOfDay,
				SortOrder: i,
			})
		}

		if _, err := repo.UpsertDefinition(ctx, drip.Name, steps); err != nil {
			return fmt.Errorf("seed drip %q: %w", drip.Name, err)
		}
		log.Info("drip definition seeded", "name", drip.Name, "steps", len(steps))
	}

	return nil
}

func validate(drip seedDrip) error {
	if drip.Name == "" {
		return fmt.Errorf("missing name")
	}
	if len(drip.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	for i, s := range drip.Steps {
		if s.Template == "" {
			return fmt.Errorf("step %d: missing template", i)
		}
		if s.DayOffset < 0 {
			return fmt.Errorf("step %d: negative day offset", i)
		}
	}
	return nil
}
