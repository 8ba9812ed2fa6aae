package ai

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var ErrInvalidModel = errors.New("invalid model")

// ModelRegistry maps model names to summarization endpoint URLs.
type ModelRegistry struct {
	endpoints    map[string]string
	known        map[string]struct{}
	defaultModel string
}

func NewModelRegistry(endpoints map[string]string, defaultModel string) *ModelRegistry {
	r := &ModelRegistry{
		endpoints:    make(map[string]string, len(endpoints)),
		known:        make(map[string]struct{}),
		defaultModel: strings.ToLower(defaultModel),
	}
	for _, name := range BuiltinModels {
		r.known[name] = struct{}{}
	}
	for name, url := range endpoints {
		name = strings.ToLower(strings.TrimSpace(name))
		r.known[name] = struct{}{}
		if url = strings.TrimSpace(url); url != "" {
			r.endpoints[name] = url
		}
	}
	return r
}

// Resolve returns the model name and endpoint. An empty name selects the
// default model.
func (r *ModelRegistry) Resolve(name string) (string, string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.defaultModel
	}
	if _, ok := r.known[name]; !ok {
		return "", "", fmt.Errorf("%w: unknown model %q", ErrInvalidModel, name)
	}
	url, ok := r.endpoints[name]
	if !ok {
		return "", "", fmt.Errorf("%w: no endpoint configured for %q", ErrInvalidModel, name)
	}
	return name, url, nil
}

// Models lists models that have an endpoint.
func (r *ModelRegistry) Models() []string {
	return slices.Sorted(maps.Keys(r.endpoints))
}

func (r *ModelRegistry) DefaultModel() string {
	return r.defaultModel
}
