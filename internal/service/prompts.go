package service

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"support-widget/internal/locale"
)

//go:embed prompts.yaml
var promptsYAML []byte

// prompts son los textos que el widget genera sin pasar por el backend.
type prompts struct {
	ConfirmQuestion string `yaml:"confirm_question"`
	ConfirmLabel    string `yaml:"confirm_label"`
	Yes             string `yaml:"yes"`
	No              string `yaml:"no"`
	RequestFailed   string `yaml:"request_failed"`
}

var localizedPrompts = mustLoadPrompts(promptsYAML)

func loadPrompts(raw []byte) (map[string]prompts, error) {
	var catalog map[string]prompts
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	def, ok := catalog[locale.Default]
	if !ok {
		return nil, fmt.Errorf("prompts: missing default locale %q", locale.Default)
	}
	// Los huecos de un locale se completan con el default.
	for code, p := range catalog {
		if p.ConfirmQuestion == "" {
			p.ConfirmQuestion = def.ConfirmQuestion
		}
		if p.ConfirmLabel == "" {
			p.ConfirmLabel = def.ConfirmLabel
		}
		if p.Yes == "" {
			p.Yes = def.Yes
		}
		if p.No == "" {
			p.No = def.No
		}
		if p.RequestFailed == "" {
			p.RequestFailed = def.RequestFailed
		}
		catalog[code] = p
	}
	return catalog, nil
}

func mustLoadPrompts(raw []byte) map[string]prompts {
	catalog, err := loadPrompts(raw)
	if err != nil {
		panic(err)
	}
	return catalog
}

func promptsFor(code string) prompts {
	if p, ok := localizedPrompts[code]; ok {
		return p
	}
	return localizedPrompts[locale.Default]
}
