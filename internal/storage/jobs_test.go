package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const extractJob = "document_extract"

// clockStore returns a store whose clock only moves when advance is called.
func clockStore(t *testing.T) (*Store, func(time.Duration)) {
	t.Helper()
	s := openTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, func(d time.Duration) { now = now.Add(d) }
}

func enqueue(t *testing.T, s *Store, jobs ...Job) {
	t.Helper()
	for _, j := range jobs {
		if j.PayloadJSON == "" {
			j.PayloadJSON = `{}`
		}
		if err := s.EnqueueJob(j); err != nil {
			t.Fatalf("EnqueueJob(%s): %v", j.ID, err)
		}
	}
}

func claim(t *testing.T, s *Store, types ...string) *Job {
	t.Helper()
	j, err := s.ClaimNextJob(types)
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	return j
}

func TestClaimNextJob(t *testing.T) {
	s, _ := clockStore(t)
	enqueue(t, s, Job{ID: "doc-1", Type: extractJob, PayloadJSON: `{"document_id":"d1"}`})

	j := claim(t, s, extractJob)
	if j == nil {
		t.Fatal("expected a job")
	}
	want := Job{
		ID:          "doc-1",
		Type:        extractJob,
		PayloadJSON: `{"document_id":"d1"}`,
		Status:      JobRunning,
		MaxAttempts: defaultMaxAttempts,
		RunAfter:    s.now(),
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}
	if diff := cmp.Diff(want, *j); diff != "" {
		t.Errorf("claimed job (-want +got):\n%s", diff)
	}

	if again := claim(t, s, extractJob); again != nil {
		t.Errorf("running job claimed twice: %+v", again)
	}
}

func TestClaimNextJob_Selection(t *testing.T) {
	tests := []struct {
		name  string
		jobs  []Job
		types []string
		want  string // "" means nothing claimable
	}{
		{"empty queue", nil, []string{extractJob}, ""},
		{"no types", []Job{{ID: "a", Type: extractJob}}, nil, ""},
		{"other type only", []Job{{ID: "a", Type: "reindex"}}, []string{extractJob}, ""},
		{"filters by type", []Job{{ID: "a", Type: "reindex"}, {ID: "b", Type: extractJob}}, []string{extractJob}, "b"},
		{"any of several types", []Job{{ID: "a", Type: "reindex"}}, []string{extractJob, "reindex"}, "a"},
		{"not yet due", []Job{{ID: "a", Type: extractJob, RunAfter: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)}}, []string{extractJob}, ""},
		{"earliest due first", []Job{
			{ID: "late", Type: extractJob, RunAfter: time.Date(2026, 3, 1, 11, 30, 0, 0, time.UTC)},
			{ID: "early", Type: extractJob, RunAfter: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
		}, []string{extractJob}, "early"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := clockStore(t)
			enqueue(t, s, tt.jobs...)

			j := claim(t, s, tt.types...)
			got := ""
			if j != nil {
				got = j.ID
			}
			if got != tt.want {
				t.Errorf("claimed %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailJob_RetriesWithBackoff(t *testing.T) {
	s, advance := clockStore(t)
	enqueue(t, s, Job{ID: "j", Type: extractJob})

	claim(t, s, extractJob)
	retry, err := s.FailJob("j", "fetch timed out")
	if err != nil || !retry {
		t.Fatalf("FailJob = %v, %v; want retry", retry, err)
	}

	// First retry waits 2s.
	if j := claim(t, s, extractJob); j != nil {
		t.Fatal("job claimable before its backoff elapsed")
	}
	advance(2 * time.Second)
	j := claim(t, s, extractJob)
	if j == nil {
		t.Fatal("job not claimable after backoff")
	}
	if j.Attempts != 1 || j.LastError != "fetch timed out" {
		t.Errorf("attempts = %d, last error = %q", j.Attempts, j.LastError)
	}

	// Second retry waits 4s.
	if _, err := s.FailJob("j", "again"); err != nil {
		t.Fatal(err)
	}
	advance(3 * time.Second)
	if claim(t, s, extractJob) != nil {
		t.Fatal("second backoff should be 4s")
	}
	advance(time.Second)
	if claim(t, s, extractJob) == nil {
		t.Fatal("job not claimable after second backoff")
	}
}

func TestFailJob_GivesUp(t *testing.T) {
	s, advance := clockStore(t)
	enqueue(t, s, Job{ID: "j", Type: extractJob, MaxAttempts: 2})

	claim(t, s, extractJob)
	if retry, _ := s.FailJob("j", "first"); !retry {
		t.Fatal("first failure should retry")
	}
	advance(time.Minute)
	claim(t, s, extractJob)
	retry, err := s.FailJob("j", "second")
	if err != nil || retry {
		t.Fatalf("FailJob = %v, %v; want final failure", retry, err)
	}

	advance(time.Hour)
	if claim(t, s, extractJob) != nil {
		t.Error("failed job was claimed again")
	}
	counts, err := s.JobCounts()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]int{JobFailed: 1}, counts); diff != "" {
		t.Errorf("job counts (-want +got):\n%s", diff)
	}
}

func TestCompleteJob(t *testing.T) {
	s, _ := clockStore(t)
	enqueue(t, s, Job{ID: "j", Type: extractJob}, Job{ID: "k", Type: extractJob})

	claim(t, s, extractJob)
	if err := s.CompleteJob("j"); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
	counts, _ := s.JobCounts()
	if diff := cmp.Diff(map[string]int{JobCompleted: 1, JobPending: 1}, counts); diff != "" {
		t.Errorf("job counts (-want +got):\n%s", diff)
	}
}

func TestUnknownJob(t *testing.T) {
	s, _ := clockStore(t)
	if err := s.CompleteJob("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteJob = %v, want ErrNotFound", err)
	}
	if _, err := s.FailJob("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FailJob = %v, want ErrNotFound", err)
	}
}
