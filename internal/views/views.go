// Package views loads and validates the view catalog: the JSON document
// mapping each cloud provider to its named report views.
package views

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"cloudreport/internal/errs"
	"cloudreport/internal/model"
)

// Catalog maps provider name to view name to view spec.
type Catalog map[string]map[string]model.ViewSpec

type viewJSON struct {
	Dimensions []string `json:"dimensions"`
	Metrics    []string `json:"metrics"`
	Category   string   `json:"category"`
}

// Load reads the catalog file and validates every view. Any missing or
// malformed field is a configuration error; nothing is fetched for a
// catalog that fails validation.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Newf(errs.CodeConfigInvalid, "views file %s is not readable: %v", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (Catalog, error) {
	var raw map[string]map[string]viewJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Newf(errs.CodeConfigInvalid, "views file is not valid JSON: %v", err)
	}
	if len(raw) == 0 {
		return nil, errs.ConfigInvalid("views file defines no providers")
	}

	catalog := make(Catalog, len(raw))
	for provider, viewSet := range raw {
		provider = strings.TrimSpace(provider)
		if provider == "" {
			return nil, errs.ConfigInvalid("views file contains an empty provider name")
		}
		if len(viewSet) == 0 {
			return nil, errs.Newf(errs.CodeConfigInvalid, "provider %s defines no views", provider)
		}
		catalog[provider] = make(map[string]model.ViewSpec, len(viewSet))
		for name, view := range viewSet {
			spec, err := validate(provider, name, view)
			if err != nil {
				return nil, err
			}
			catalog[provider][name] = spec
		}
	}
	return catalog, nil
}

func validate(provider, name string, view viewJSON) (model.ViewSpec, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ViewSpec{}, errs.Newf(errs.CodeConfigInvalid, "provider %s contains a view with an empty name", provider)
	}
	if len(view.Dimensions) == 0 {
		return model.ViewSpec{}, errs.Newf(errs.CodeConfigInvalid, "view %s/%s has no dimensions", provider, name)
	}
	if len(view.Metrics) == 0 {
		return model.ViewSpec{}, errs.Newf(errs.CodeConfigInvalid, "view %s/%s has no metrics", provider, name)
	}
	if strings.TrimSpace(view.Category) == "" {
		return model.ViewSpec{}, errs.Newf(errs.CodeConfigInvalid, "view %s/%s has no category", provider, name)
	}
	for _, dim := range view.Dimensions {
		if strings.TrimSpace(dim) == "" {
			return model.ViewSpec{}, errs.Newf(errs.CodeConfigInvalid, "view %s/%s has an empty dimension", provider, name)
		}
	}
	for _, metric := range view.Metrics {
		if strings.TrimSpace(metric) == "" {
			return model.ViewSpec{}, errs.Newf(errs.CodeConfigInvalid, "view %s/%s has an empty metric", provider, name)
		}
	}
	return model.ViewSpec{
		Name:       name,
		Dimensions: view.Dimensions,
		Metrics:    view.Metrics,
		Category:   strings.TrimSpace(view.Category),
	}, nil
}

// Providers returns the configured provider names in sorted order. JSON
// objects carry no order, so sorting keeps runs deterministic.
func (c Catalog) Providers() []string {
	providers := make([]string, 0, len(c))
	for provider := range c {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}

// Views returns the provider's view specs sorted by view name.
func (c Catalog) Views(provider string) []model.ViewSpec {
	viewSet := c[provider]
	names := make([]string, 0, len(viewSet))
	for name := range viewSet {
		names = append(names, name)
	}
	sort.Strings(names)
	specs := make([]model.ViewSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, viewSet[name])
	}
	return specs
}
