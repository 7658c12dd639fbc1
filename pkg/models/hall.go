package models

import (
	"fmt"
	"time"
)

// Hall is a recognizable lecture hall. Name is the unique key.
type Hall struct {
	Name      string  `json:"name" yaml:"name"`
	Capacity  int     `json:"capacity" yaml:"capacity"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Floor     int     `json:"floor" yaml:"floor"`
}

// ScheduleEntry is a single booking of a hall
type ScheduleEntry struct {
	Hall       string    `json:"hall" yaml:"hall"`
	StartTime  time.Time `json:"start_time" yaml:"start_time"`
	EndTime    time.Time `json:"end_time" yaml:"end_time"`
	CourseName string    `json:"course_name" yaml:"course_name"`
}

// Validate checks the entry's own invariants
func (e ScheduleEntry) Validate() error {
	if e.Hall == "" {
		return fmt.Errorf("schedule entry %q has no hall", e.CourseName)
	}
	if !e.StartTime.Before(e.EndTime) {
		return fmt.Errorf("schedule entry %q in %s: start %s is not before end %s",
			e.CourseName, e.Hall, e.StartTime.Format(time.RFC3339), e.EndTime.Format(time.RFC3339))
	}
	return nil
}
