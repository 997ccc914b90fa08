package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/dgallion1/specgest/internal/extract"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("spec.hwpx", []byte("payload"))
	if job.ID == "" {
		t.Fatal("expected job ID")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.ContentHash != ContentHashHex([]byte("payload")) {
		t.Errorf("unexpected content hash %q", job.ContentHash)
	}
	if string(job.FileData()) != "payload" {
		t.Errorf("expected file data to be kept, got %q", job.FileData())
	}

	other := NewJob("spec.hwpx", []byte("payload"))
	if other.ID == job.ID {
		t.Error("expected unique job IDs")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	before := job.UpdatedAt
	time.Sleep(time.Millisecond)
	job.SetStatus(StatusExtracting, "extracting")

	if job.Status != StatusExtracting {
		t.Errorf("expected status %q, got %q", StatusExtracting, job.Status)
	}
	if job.Phase != "extracting" {
		t.Errorf("expected phase %q, got %q", "extracting", job.Phase)
	}
	if !job.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance after SetStatus")
	}
}

func TestJob_Complete(t *testing.T) {
	job := NewJob("a.hwpx", []byte("zip"))
	job.Complete(&extract.Result{
		Requirements:      []extract.Requirement{{Number: "REQ-001"}, {Number: "REQ-002"}},
		Sections:          3,
		SkippedSections:   []string{"Contents/section2.xml"},
		RequirementTables: 4,
	})

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Errorf("expected status %q, got %q", StatusCompleted, snap.Status)
	}
	want := Progress{Sections: 3, SkippedSections: 1, RequirementTables: 4, Requirements: 2}
	if snap.Progress != want {
		t.Errorf("expected progress %+v, got %+v", want, snap.Progress)
	}
	if len(snap.Requirements) != 2 || snap.Requirements[1].Number != "REQ-002" {
		t.Errorf("unexpected requirements %+v", snap.Requirements)
	}
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJob_Fail(t *testing.T) {
	job := NewJob("a.hwpx", []byte("zip"))
	job.Fail("extracting", fmt.Errorf("open: %w", extract.ErrInvalidArchive))

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.ErrorKind != extract.KindInvalidArchive {
		t.Errorf("expected kind %q, got %q", extract.KindInvalidArchive, snap.ErrorKind)
	}
	if snap.Error != "open: invalid archive" {
		t.Errorf("unexpected error text %q", snap.Error)
	}
	if snap.Requirements != nil {
		t.Error("expected no requirements on failure")
	}
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJob_SnapshotIsACopy(t *testing.T) {
	job := NewJob("a.hwpx", nil)
	res := &extract.Result{Requirements: []extract.Requirement{{Number: "REQ-001"}}}
	job.Complete(res)

	snap := job.Snapshot()
	snap.Requirements[0].Number = "changed"
	if job.Result().Requirements[0].Number != "REQ-001" {
		t.Error("snapshot aliases the job result")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	store.Cleanup()
}
