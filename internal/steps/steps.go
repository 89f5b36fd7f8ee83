// Package steps provides the ordered registry of onboarding steps.
//
// The registry is loaded from YAML (the default list is embedded) and is
// immutable afterwards.
package steps

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed steps.yaml
var embeddedSteps []byte

// Welcome is the index of the implicit pre-step shown before the first
// registered step. It has no fields and no slug.
const Welcome = -1

// RoutePrefix is the path prefix step slugs live under.
const RoutePrefix = "/onboarding/"

// ValidityKey names the derived flag that marks a step complete.
type ValidityKey string

const (
	KeyAccount  ValidityKey = "account"
	KeySettings ValidityKey = "settings"
	KeyServices ValidityKey = "services"
)

var (
	ErrNoSteps       = errors.New("no steps defined")
	ErrEmptySlug     = errors.New("step slug is empty")
	ErrDuplicateSlug = errors.New("duplicate step slug")
)

// Step describes one page of the wizard.
type Step struct {
	Slug        string      `yaml:"slug"`
	Name        string      `yaml:"name"`
	ValidityKey ValidityKey `yaml:"validity_key"`
}

type definition struct {
	Steps []Step `yaml:"steps"`
}

// Registry is the ordered step list plus its slug index.
type Registry struct {
	steps []Step
	index map[string]int
}

// Default returns the registry built from the embedded step list.
func Default() *Registry {
	r, err := Load(embeddedSteps)
	if err != nil {
		panic(fmt.Sprintf("embedded steps.yaml: %v", err))
	}
	return r
}

// Load parses a YAML step list.
func Load(data []byte) (*Registry, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing step list: %w", err)
	}
	return New(def.Steps)
}

// New builds a registry from steps in navigation order.
func New(steps []Step) (*Registry, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	r := &Registry{
		steps: make([]Step, len(steps)),
		index: make(map[string]int, len(steps)),
	}
	copy(r.steps, steps)

	for i, s := range r.steps {
		if s.Slug == "" {
			return nil, fmt.Errorf("step %d: %w", i, ErrEmptySlug)
		}
		if _, dup := r.index[s.Slug]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, s.Slug)
		}
		r.index[s.Slug] = i
	}

	return r, nil
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.steps)
}

// Slugs returns the step slugs in order.
func (r *Registry) Slugs() []string {
	slugs := make([]string, len(r.steps))
	for i, s := range r.steps {
		slugs[i] = s.Slug
	}
	return slugs
}

// Steps returns a copy of the step list.
func (r *Registry) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Step returns the step at index i.
func (r *Registry) Step(i int) (Step, bool) {
	if i < 0 || i >= len(r.steps) {
		return Step{}, false
	}
	return r.steps[i], true
}

// IndexOf returns the index of slug, or -1 if it is not registered.
func (r *Registry) IndexOf(slug string) int {
	if i, ok := r.index[slug]; ok {
		return i
	}
	return -1
}

// IndexFromPath resolves a route like "/onboarding/settings" to a step index.
// Paths outside RoutePrefix, including the welcome route "/", resolve to -1.
func (r *Registry) IndexFromPath(path string) int {
	if !strings.HasPrefix(path, RoutePrefix) {
		return -1
	}
	slug := strings.TrimPrefix(path, RoutePrefix)
	slug, _, _ = strings.Cut(slug, "/")
	return r.IndexOf(slug)
}

// Path returns the route of the step at index i ("/" for the welcome step).
func (r *Registry) Path(i int) string {
	s, ok := r.Step(i)
	if !ok {
		return "/"
	}
	return RoutePrefix + s.Slug
}

// ValidityKey returns the validity key of step i; empty when the step has none.
func (r *Registry) ValidityKey(i int) ValidityKey {
	s, _ := r.Step(i)
	return s.ValidityKey
}

// Keys returns every validity key in step order.
func (r *Registry) Keys() []ValidityKey {
	var keys []ValidityKey
	for _, s := range r.steps {
		if s.ValidityKey != "" {
			keys = append(keys, s.ValidityKey)
		}
	}
	return keys
}

// Next returns the slug following index i, or "" when i is the last step.
// Next(Welcome) is the first slug.
func (r *Registry) Next(i int) string {
	s, ok := r.Step(i + 1)
	if !ok {
		return ""
	}
	return s.Slug
}

// Prev returns the slug before index i, or "" when going back reaches the
// welcome step.
func (r *Registry) Prev(i int) string {
	s, ok := r.Step(i - 1)
	if !ok {
		return ""
	}
	return s.Slug
}

// First returns the first slug.
func (r *Registry) First() string {
	return r.steps[0].Slug
}

// IsLast reports whether i is the final step.
func (r *Registry) IsLast(i int) bool {
	return i == len(r.steps)-1
}
