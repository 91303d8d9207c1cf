package portal

import (
	"strconv"

	"github.com/shikkhaloy/shikkhaloy/core/i18n"
	"github.com/shikkhaloy/shikkhaloy/core/student"
)

type Card struct {
	Label string
	Value string
}

// Point is one bar or slice of a chart.
type Point struct {
	Label string
	Value int
}

// Dashboard is derived from a student list every time it is shown.
type Dashboard struct {
	Stats        student.Stats
	Cards        []Card
	GenderSeries []Point
	ClassSeries  []Point
}

func NewDashboard(list []student.Student, lang i18n.Language) Dashboard {
	stats := student.ComputeStats(list)
	t := i18n.T(lang)

	d := Dashboard{
		Stats: stats,
		Cards: []Card{
			{Label: t.StatsTotalStudents, Value: strconv.Itoa(stats.Total)},
			{Label: t.StatsMale, Value: strconv.Itoa(stats.Male)},
			{Label: t.StatsFemale, Value: strconv.Itoa(stats.Female)},
			{Label: t.AverageAttendance, Value: strconv.Itoa(stats.AverageAttendance) + "%"},
		},
		GenderSeries: []Point{
			{Label: t.StatsMale, Value: stats.Male},
			{Label: t.StatsFemale, Value: stats.Female},
		},
		ClassSeries: make([]Point, 0, len(stats.Classes)),
	}
	if stats.Other > 0 {
		d.GenderSeries = append(d.GenderSeries, Point{Label: t.StatsOther, Value: stats.Other})
	}
	for _, cc := range stats.Classes {
		d.ClassSeries = append(d.ClassSeries, Point{Label: cc.Class, Value: cc.Count})
	}
	return d
}
