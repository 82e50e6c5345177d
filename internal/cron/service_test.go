package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/mypackmx/logistics-backend/pkg/logger"
)

type fakeLock struct {
	available bool
	acquired  int
	released  int
}

func (l *fakeLock) Acquire(_ context.Context) (bool, error) {
	l.acquired++
	return l.available, nil
}

func (l *fakeLock) Release(_ context.Context) error {
	l.released++
	return nil
}

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(_ context.Context) error {
	j.runs++
	return j.err
}

func newCronService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRunCycleExecutesJobsInOrder(t *testing.T) {
	lock := &fakeLock{available: true}
	first := &countingJob{name: "first"}
	second := &countingJob{name: "second", err: errors.New("boom")}
	third := &countingJob{name: "third"}
	svc := newCronService(t, lock, first, second, third)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if first.runs != 1 || second.runs != 1 || third.runs != 1 {
		t.Fatalf("expected every job to run once, got %d/%d/%d", first.runs, second.runs, third.runs)
	}
	if lock.released != 1 {
		t.Fatal("expected the lock to be released")
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	lock := &fakeLock{available: false}
	job := &countingJob{name: "sweep"}
	svc := newCronService(t, lock, job)

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("expected no job run while another instance holds the lock")
	}
	if lock.released != 0 {
		t.Fatal("expected no release of a lock we never held")
	}
}

func TestRegistryIgnoresNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &countingJob{name: "only"})
	if len(registry.Jobs()) != 1 {
		t.Fatalf("expected one job, got %d", len(registry.Jobs()))
	}
}
