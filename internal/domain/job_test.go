package domain

import (
	"errors"
	"testing"
)

func TestJobAdvanceToIsMonotonic(t *testing.T) {
	job := &Job{ID: "j1", Status: JobReceived}

	if !job.AdvanceTo(JobDelivered) {
		t.Fatal("expected Received -> Delivered to advance")
	}
	if job.AdvanceTo(JobDelivered) {
		t.Fatal("Delivered applied twice reported a change")
	}
	if job.AdvanceTo(JobInTransit) {
		t.Fatal("job regressed from Delivered to InTransit")
	}
	if job.Status != JobDelivered {
		t.Fatalf("status = %q, want %q", job.Status, JobDelivered)
	}
}

func TestCancelledJobIsNeverAdvanced(t *testing.T) {
	job := &Job{ID: "j1", Status: JobCancelled}
	if job.AdvanceTo(JobDelivered) {
		t.Fatal("cancelled job was advanced")
	}
}

func TestStopStatusJobTarget(t *testing.T) {
	if js, ok := StopPickedUp.JobTarget(); !ok || js != JobInTransit {
		t.Fatalf("PickedUp -> %q, %v", js, ok)
	}
	if js, ok := StopDelivered.JobTarget(); !ok || js != JobDelivered {
		t.Fatalf("Delivered -> %q, %v", js, ok)
	}
	if _, ok := StopCreated.JobTarget(); ok {
		t.Fatal("Created should not map to a job status")
	}
}

func TestParseStopStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseStopStatus("Lost"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
	if _, err := ParseJobStatus(""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}
