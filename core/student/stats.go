package student

import "math"

type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

type Stats struct {
	Total             int          `json:"total"`
	Male              int          `json:"male"`
	Female            int          `json:"female"`
	Other             int          `json:"other"`
	AverageAttendance int          `json:"average_attendance"` // whole percent
	Classes           []ClassCount `json:"classes"`            // in order of first appearance
}

// ComputeStats derives the dashboard aggregates from a student list.
// The average attendance rounds half up and is 0 for an empty list.
func ComputeStats(list []Student) Stats {
	stats := Stats{Total: len(list), Classes: make([]ClassCount, 0)}
	if len(list) == 0 {
		return stats
	}

	var sum float64
	classIdx := make(map[string]int)
	for _, s := range list {
		switch s.Gender {
		case Male:
			stats.Male++
		case Female:
			stats.Female++
		case Other:
			stats.Other++
		}
		sum += s.Attendance

		if i, ok := classIdx[s.Class]; ok {
			stats.Classes[i].Count++
		} else {
			classIdx[s.Class] = len(stats.Classes)
			stats.Classes = append(stats.Classes, ClassCount{Class: s.Class, Count: 1})
		}
	}
	stats.AverageAttendance = int(math.Floor(sum/float64(len(list)) + 0.5))
	return stats
}
