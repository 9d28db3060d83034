package report

import (
	"math"
	"sort"
	"time"

	"horas/internal/model"
)

// Summarize computes a report's analytics from its entry set and its
// hour budget. budget is the contracted hours; now anchors the velocity
// and remaining-days estimates.
func Summarize(entries []model.TimeEntry, budget float64, now time.Time) model.ReportSummary {
	s := model.ReportSummary{
		TotalHoursAvailable:  budget,
		TasksByDescription:   []model.GroupedTask{},
		TeamDistribution:     []model.OwnerHours{},
		ConsumptionEvolution: []model.ConsumptionPoint{},
	}

	var earliest time.Time
	for _, e := range entries {
		s.TotalHoursConsumed += hours(e.Duration)
		if start := e.StartTime(); !start.IsZero() {
			if earliest.IsZero() || start.Before(earliest) {
				earliest = start
			}
		}
	}
	s.TotalHoursConsumed = round2(s.TotalHoursConsumed)

	if budget > 0 {
		s.ConsumptionPercentage = round2(s.TotalHoursConsumed / budget * 100)
	}

	// Velocity over the report's whole lifetime, floored at one day so a
	// report whose entries all landed today still gets a finite speed.
	if !earliest.IsZero() && s.TotalHoursConsumed > 0 {
		days := math.Ceil(now.Sub(earliest).Hours() / 24)
		if days < 1 {
			days = 1
		}
		s.ConsumptionSpeed = round2(s.TotalHoursConsumed / days)
	}

	if budget > s.TotalHoursConsumed && s.ConsumptionSpeed > 0 {
		s.EstimatedDaysRemaining = int(math.Ceil((budget - s.TotalHoursConsumed) / s.ConsumptionSpeed))
	}

	s.TasksByDescription = groupByDescription(entries)
	s.CompletedTasks = len(s.TasksByDescription)
	if s.CompletedTasks > 0 {
		s.AverageHoursPerTask = round2(s.TotalHoursConsumed / float64(s.CompletedTasks))
	}

	s.TeamDistribution = teamDistribution(entries)
	s.ConsumptionEvolution = consumptionEvolution(entries)

	return s
}

// groupByDescription buckets entries into tasks by their description,
// ordered by hours consumed, heaviest first.
func groupByDescription(entries []model.TimeEntry) []model.GroupedTask {
	byDesc := make(map[string]*model.GroupedTask)
	order := []string{}
	for _, e := range entries {
		desc := e.Description
		if desc == "" {
			desc = "(no description)"
		}
		g, ok := byDesc[desc]
		if !ok {
			g = &model.GroupedTask{Description: desc}
			byDesc[desc] = g
			order = append(order, desc)
		}
		g.TotalHours += hours(e.Duration)
		g.Count++
		g.Entries = append(g.Entries, e)
	}

	out := make([]model.GroupedTask, 0, len(order))
	for _, desc := range order {
		g := byDesc[desc]
		g.TotalHours = round2(g.TotalHours)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalHours > out[j].TotalHours })
	return out
}

func teamDistribution(entries []model.TimeEntry) []model.OwnerHours {
	byOwner := make(map[string]float64)
	order := []string{}
	for _, e := range entries {
		name := e.OwnerName
		if name == "" {
			name = "(unknown)"
		}
		if _, ok := byOwner[name]; !ok {
			order = append(order, name)
		}
		byOwner[name] += hours(e.Duration)
	}

	out := make([]model.OwnerHours, 0, len(order))
	for _, name := range order {
		out = append(out, model.OwnerHours{Name: name, Hours: round2(byOwner[name])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out
}

// consumptionEvolution accumulates hours per calendar day, so each point
// shows total hours consumed up to and including that day.
func consumptionEvolution(entries []model.TimeEntry) []model.ConsumptionPoint {
	byDay := make(map[string]float64)
	for _, e := range entries {
		start := e.StartTime()
		if start.IsZero() {
			continue
		}
		byDay[start.UTC().Format("2006-01-02")] += hours(e.Duration)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]model.ConsumptionPoint, 0, len(days))
	var cumulative float64
	for _, day := range days {
		cumulative += byDay[day]
		out = append(out, model.ConsumptionPoint{Date: day, Hours: round2(cumulative)})
	}
	return out
}

func hours(durationSeconds int64) float64 {
	return float64(durationSeconds) / 3600
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
