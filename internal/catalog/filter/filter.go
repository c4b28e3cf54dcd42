// Package filter narrows a project list by free-text search and by the
// city, type, label and creator dimensions. Every function is pure; the
// same rules are implemented by assets/catalog.js for the browser and the
// standalone export.
package filter

import (
	"slices"
	"sort"
	"strings"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// CreatorAll disables the creator dimension.
const CreatorAll = "all"

// NoLabel is how an empty label is displayed in filter menus.
const NoLabel = "无标签"

// Criteria is a transient filter. An empty slice puts no restriction on its
// dimension; Creator "" or CreatorAll likewise.
type Criteria struct {
	Search  string   `json:"search"`
	Cities  []string `json:"cities"`
	Types   []string `json:"types"`
	Labels  []string `json:"labels"`
	Creator string   `json:"creator"`
}

func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.Search) == "" &&
		len(c.Cities) == 0 &&
		len(c.Types) == 0 &&
		len(c.Labels) == 0 &&
		!c.restrictsCreator()
}

func (c Criteria) restrictsCreator() bool {
	return c.Creator != "" && c.Creator != CreatorAll
}

// Apply returns the projects matching every active dimension of c, in input
// order. The result is never nil.
func Apply(projects []domain.Project, types []domain.ProjectTypeDef, c Criteria) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	search := strings.ToLower(strings.TrimSpace(c.Search))
	labels := typeLabels(types)

	for _, p := range projects {
		if search != "" && !matchesSearch(p, labels, search) {
			continue
		}
		if !inSet(c.Cities, p.City) || !inSet(c.Types, p.Type) || !inSet(c.Labels, p.Label) {
			continue
		}
		if c.restrictsCreator() && p.CreatedBy != c.Creator {
			continue
		}
		out = append(out, p)
	}
	return out
}

// TypeLabel resolves a type key to its display label, falling back to the key.
func TypeLabel(types []domain.ProjectTypeDef, key string) string {
	for _, t := range types {
		if t.Key == key {
			return t.Label
		}
	}
	return key
}

// LabelText is the menu text for a label value.
func LabelText(label string) string {
	if label == "" {
		return NoLabel
	}
	return label
}

// Options lists the distinct cities and labels present in projects, sorted,
// for populating filter menus.
type Options struct {
	Cities []string `json:"cities"`
	Labels []string `json:"labels"`
}

func OptionsFor(projects []domain.Project) Options {
	return Options{
		Cities: distinct(projects, func(p domain.Project) string { return p.City }),
		Labels: distinct(projects, func(p domain.Project) string { return p.Label }),
	}
}

// UsedTypes keeps the type defs referenced by at least one project, in
// definition order.
func UsedTypes(projects []domain.Project, types []domain.ProjectTypeDef) []domain.ProjectTypeDef {
	used := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		used[p.Type] = struct{}{}
	}
	out := make([]domain.ProjectTypeDef, 0, len(types))
	for _, t := range types {
		if _, ok := used[t.Key]; ok {
			out = append(out, t)
		}
	}
	return out
}

func matchesSearch(p domain.Project, labels map[string]string, search string) bool {
	typeLabel, ok := labels[p.Type]
	if !ok {
		typeLabel = p.Type
	}
	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Label), search) ||
		strings.Contains(strings.ToLower(typeLabel), search)
}

func typeLabels(types []domain.ProjectTypeDef) map[string]string {
	m := make(map[string]string, len(types))
	for _, t := range types {
		if _, dup := m[t.Key]; !dup {
			m[t.Key] = t.Label
		}
	}
	return m
}

func inSet(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}

func distinct(projects []domain.Project, field func(domain.Project) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range projects {
		v := field(p)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
