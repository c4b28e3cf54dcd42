// Package selection groups filtered projects by city and tracks which
// project ids a session has included for map display and export.
package selection

import (
	"sort"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// CityGroup is one city and its projects, in filtered order.
type CityGroup struct {
	City     string           `json:"city"`
	Projects []domain.Project `json:"projects"`
}

// GroupByCity groups projects by city. Groups appear in order of the first
// project seen for each city, and projects keep their relative order.
func GroupByCity(projects []domain.Project) []CityGroup {
	groups := []CityGroup{}
	index := make(map[string]int)
	for _, p := range projects {
		i, ok := index[p.City]
		if !ok {
			i = len(groups)
			index[p.City] = i
			groups = append(groups, CityGroup{City: p.City})
		}
		groups[i].Projects = append(groups[i].Projects, p)
	}
	return groups
}

// Set is the inclusion set of one session. The zero value is not usable;
// use New or NewAll.
type Set struct {
	ids map[string]struct{}
}

func New(ids ...string) *Set {
	s := &Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// NewAll selects every given project.
func NewAll(projects []domain.Project) *Set {
	s := &Set{ids: make(map[string]struct{}, len(projects))}
	for _, p := range projects {
		s.ids[p.ID] = struct{}{}
	}
	return s
}

func (s *Set) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Set) Len() int { return len(s.ids) }

// IDs returns the selected ids sorted.
func (s *Set) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Toggle flips membership of id.
func (s *Set) Toggle(id string) {
	if s.Has(id) {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// AllSelected reports whether projects is non-empty and fully selected.
func (s *Set) AllSelected(projects []domain.Project) bool {
	if len(projects) == 0 {
		return false
	}
	for _, p := range projects {
		if !s.Has(p.ID) {
			return false
		}
	}
	return true
}

// ToggleCity deselects all of projects when every one is selected and
// selects all of them otherwise. Ids outside projects are untouched.
func (s *Set) ToggleCity(projects []domain.Project) {
	s.toggleGroup(projects)
}

// ToggleAllVisible applies the same all-or-nothing rule as ToggleCity to the
// whole filtered list.
func (s *Set) ToggleAllVisible(projects []domain.Project) {
	s.toggleGroup(projects)
}

func (s *Set) toggleGroup(projects []domain.Project) {
	if len(projects) == 0 {
		return
	}
	if s.AllSelected(projects) {
		for _, p := range projects {
			delete(s.ids, p.ID)
		}
		return
	}
	for _, p := range projects {
		s.ids[p.ID] = struct{}{}
	}
}

// Prune drops ids not in valid and returns the dropped ids sorted.
func (s *Set) Prune(valid []string) []string {
	keep := make(map[string]struct{}, len(valid))
	for _, id := range valid {
		keep[id] = struct{}{}
	}
	var removed []string
	for id := range s.ids {
		if _, ok := keep[id]; !ok {
			removed = append(removed, id)
			delete(s.ids, id)
		}
	}
	sort.Strings(removed)
	return removed
}

// Selected returns the selected projects in input order.
func (s *Set) Selected(projects []domain.Project) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if s.Has(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// CityState is the aggregate selection state of one city group.
type CityState struct {
	City        string `json:"city"`
	Total       int    `json:"total"`
	Selected    int    `json:"selected"`
	AllSelected bool   `json:"allSelected"`
}

func (s *Set) States(groups []CityGroup) []CityState {
	out := make([]CityState, 0, len(groups))
	for _, g := range groups {
		st := CityState{City: g.City, Total: len(g.Projects)}
		for _, p := range g.Projects {
			if s.Has(p.ID) {
				st.Selected++
			}
		}
		st.AllSelected = st.Total > 0 && st.Selected == st.Total
		out = append(out, st)
	}
	return out
}
