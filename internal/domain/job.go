package domain

import (
	"fmt"
	"strings"
)

// JobStatus is the shipment status of a job. Received < InTransit < Delivered
// is the monotonic order; Cancelled sits outside it.
type JobStatus string

const (
	JobReceived  JobStatus = "Received"
	JobInTransit JobStatus = "InTransit"
	JobDelivered JobStatus = "Delivered"
	JobCancelled JobStatus = "Cancelled"
)

var jobRank = map[JobStatus]int{
	JobReceived:  1,
	JobInTransit: 2,
	JobDelivered: 3,
}

func ParseJobStatus(name string) (JobStatus, error) {
	n := strings.TrimSpace(name)
	for _, s := range []JobStatus{JobReceived, JobInTransit, JobDelivered, JobCancelled} {
		if strings.EqualFold(n, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: job status %q", ErrInvalidStatus, name)
}

// Precedes reports whether s is strictly earlier than target in the monotonic order.
// Cancelled never precedes anything, so cancelled jobs are never advanced.
func (s JobStatus) Precedes(target JobStatus) bool {
	rs, ok1 := jobRank[s]
	rt, ok2 := jobRank[target]
	return ok1 && ok2 && rs < rt
}

// Represents a single shipment request. Only one non-terminal trip may carry it.
type Job struct {
	ID            string
	Status        JobStatus
	Weight        float64
	Volume        float64
	CustomerRef   string
	PickupAddress string
	DropAddress   string
}

// AdvanceTo moves the job forward to target and reports whether it changed.
// It never moves a job backwards.
func (j *Job) AdvanceTo(target JobStatus) bool {
	if !j.Status.Precedes(target) {
		return false
	}
	j.Status = target
	return true
}

// StopStatus is the pickup/delivery sub-status of a trip stop.
type StopStatus string

const (
	StopCreated   StopStatus = "Created"
	StopPickedUp  StopStatus = "PickedUp"
	StopDelivered StopStatus = "Delivered"
)

var stopRank = map[StopStatus]int{
	StopCreated:   1,
	StopPickedUp:  2,
	StopDelivered: 3,
}

func ParseStopStatus(name string) (StopStatus, error) {
	n := strings.TrimSpace(name)
	for _, s := range []StopStatus{StopCreated, StopPickedUp, StopDelivered} {
		if strings.EqualFold(n, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: stop status %q", ErrInvalidStatus, name)
}

func (s StopStatus) Precedes(target StopStatus) bool {
	return stopRank[s] < stopRank[target]
}

// JobTarget maps a stop status onto the job status it implies.
func (s StopStatus) JobTarget() (JobStatus, bool) {
	switch s {
	case StopPickedUp:
		return JobInTransit, true
	case StopDelivered:
		return JobDelivered, true
	default:
		return "", false
	}
}

// Represents the join of a trip to one job, in visiting order.
type TripStop struct {
	ID            string
	TripID        string
	JobID         string
	SequenceOrder int
	Status        StopStatus
}
