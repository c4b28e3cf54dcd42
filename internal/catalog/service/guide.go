package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/filter"
	"github.com/tztw/projectmap/internal/catalog/selection"
)

// Verdicts of an itinerary guide.
const (
	VerdictEmpty    = "empty"
	VerdictTight    = "tight"
	VerdictIdle     = "idle"
	VerdictBalanced = "balanced"
)

const (
	defaultGuideDays = 3
	dateLayout       = "2006-01-02"
	maxPerDay        = 5
	minPerDay        = 2

	defaultLongTransport  = "智能混排 (远飞近铁)"
	defaultShortTransport = "租车自驾"
)

type GuideRequest struct {
	StartCity      string           `json:"startCity"`
	StartDate      string           `json:"startDate"`
	ReturnDate     string           `json:"returnDate"`
	LongTransport  string           `json:"longTransport"`
	ShortTransport string           `json:"shortTransport"`
	Criteria       *filter.Criteria `json:"criteria,omitempty"`
}

type GuideStop struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TypeLabel string `json:"typeLabel"`
}

type GuideCity struct {
	City     string      `json:"city"`
	Projects []GuideStop `json:"projects"`
}

// Guide is a trip plan over the selected projects.
type Guide struct {
	StartCity      string      `json:"startCity"`
	StartDate      string      `json:"startDate"`
	ReturnDate     string      `json:"returnDate"`
	LongTransport  string      `json:"longTransport"`
	ShortTransport string      `json:"shortTransport"`
	Days           int         `json:"days"`
	Count          int         `json:"count"`
	PerDay         float64     `json:"perDay"`
	Verdict        string      `json:"verdict"`
	Message        string      `json:"message"`
	Cities         []GuideCity `json:"cities"`
}

// TripDays counts the days of a trip, both ends included. Missing or
// unparsable dates give the default of three days.
func TripDays(start, end string) int {
	if start == "" || end == "" {
		return defaultGuideDays
	}
	d1, err1 := time.Parse(dateLayout, start)
	d2, err2 := time.Parse(dateLayout, end)
	if err1 != nil || err2 != nil {
		return defaultGuideDays
	}
	diff := d2.Sub(d1)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours()/24)) + 1
}

// Assess rates count projects over days.
func Assess(count, days int) (perDay float64, verdict string) {
	if days <= 0 {
		days = defaultGuideDays
	}
	perDay = float64(count) / float64(days)
	switch {
	case count == 0:
		verdict = VerdictEmpty
	case perDay > maxPerDay:
		verdict = VerdictTight
	case perDay < minPerDay:
		verdict = VerdictIdle
	default:
		verdict = VerdictBalanced
	}
	return perDay, verdict
}

func guideMessage(verdict string, count int, perDay float64) string {
	switch verdict {
	case VerdictEmpty:
		return "没有符合条件的项目"
	case VerdictTight:
		return fmt.Sprintf("⚠️ 警告：当前选中 %d 个项目，平均每天需考察 %.1f 个（建议每天3-5个），行程过于紧凑。", count, perDay)
	case VerdictIdle:
		return fmt.Sprintf("💡 提示：当前选中 %d 个项目，平均每天仅考察 %.1f 个，行程较为空闲。", count, perDay)
	default:
		return fmt.Sprintf("✅ 行程适中：当前选中 %d 个项目，平均每天考察 %.1f 个。", count, perDay)
	}
}

// Guide plans a trip over the session's selected projects.
func (s *Service) Guide(ctx context.Context, viewer *domain.User, sessionID string, req GuideRequest) (*Guide, error) {
	chosen, types, err := s.selectedProjects(ctx, viewer, sessionID, req.Criteria)
	if err != nil {
		return nil, err
	}

	g := &Guide{
		StartCity:      req.StartCity,
		StartDate:      req.StartDate,
		ReturnDate:     req.ReturnDate,
		LongTransport:  req.LongTransport,
		ShortTransport: req.ShortTransport,
		Days:           TripDays(req.StartDate, req.ReturnDate),
		Count:          len(chosen),
		Cities:         []GuideCity{},
	}
	if g.LongTransport == "" {
		g.LongTransport = defaultLongTransport
	}
	if g.ShortTransport == "" {
		g.ShortTransport = defaultShortTransport
	}
	g.PerDay, g.Verdict = Assess(g.Count, g.Days)
	g.Message = guideMessage(g.Verdict, g.Count, g.PerDay)

	for _, group := range selection.GroupByCity(chosen) {
		gc := GuideCity{City: group.City}
		for _, p := range group.Projects {
			gc.Projects = append(gc.Projects, GuideStop{ID: p.ID, Name: p.Name, TypeLabel: filter.TypeLabel(types, p.Type)})
		}
		g.Cities = append(g.Cities, gc)
	}
	return g, nil
}
