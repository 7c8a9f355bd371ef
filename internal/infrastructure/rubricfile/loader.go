package rubricfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bovicare/bovicare/internal/core/domain"
)

type fileItem struct {
	Criterion string   `yaml:"criterion"`
	Points    float64  `yaml:"points"`
	Tags      []string `yaml:"tags"`
}

type file struct {
	Categories map[string][]fileItem `yaml:"categories"`
}

// Load reads rubric categories from a YAML file. Loaded categories are
// meant to overlay the built-in set via Merge, so a file may redefine an
// existing category or add new ones.
func Load(path string) (map[string][]domain.RubricItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rubric file: %w", err)
	}

	var parsed file
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse rubric file: %w", err)
	}
	if len(parsed.Categories) == 0 {
		return nil, fmt.Errorf("rubric file %s defines no categories", path)
	}

	out := make(map[string][]domain.RubricItem, len(parsed.Categories))
	for category, items := range parsed.Categories {
		if len(items) == 0 {
			return nil, fmt.Errorf("category %q has no items", category)
		}
		converted := make([]domain.RubricItem, 0, len(items))
		for i, item := range items {
			if item.Criterion == "" {
				return nil, fmt.Errorf("category %q item %d: empty criterion", category, i)
			}
			if item.Points == 0 {
				return nil, fmt.Errorf("category %q item %d: zero points", category, i)
			}
			if dup := duplicateTag(item.Tags); dup != "" {
				return nil, fmt.Errorf("category %q item %d: duplicate tag %q", category, i, dup)
			}
			converted = append(converted, domain.RubricItem{
				Criterion: item.Criterion,
				Points:    item.Points,
				Tags:      item.Tags,
			})
		}
		out[category] = converted
	}
	return out, nil
}

// Merge overlays loaded categories onto the base set. Categories present
// in both are replaced wholesale, never merged item by item.
func Merge(base, overlay map[string][]domain.RubricItem) map[string][]domain.RubricItem {
	out := make(map[string][]domain.RubricItem, len(base)+len(overlay))
	for category, items := range base {
		out[category] = items
	}
	for category, items := range overlay {
		out[category] = items
	}
	return out
}

func duplicateTag(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			return tag
		}
		seen[tag] = struct{}{}
	}
	return ""
}
