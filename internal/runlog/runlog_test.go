package runlog

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestRecordAndListRuns(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open run history database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	}()

	first := Run{
		ImagesDir:      "/data/images",
		AnnotationsDir: "/data/annotations",
		Matched:        42,
		OnlyImages:     1,
		OnlyXMLs:       2,
		Inspected:      10,
		ObjectTotal:    130,
		Labels:         map[string]int{"cat": 100, "dog": 30},
		Success:        true,
	}
	id, err := db.RecordRun(first)
	if err != nil {
		t.Fatalf("Failed to record run: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a generated run id")
	}

	second := first
	second.ParseErrors = 3
	second.Success = false
	if _, err := db.RecordRun(second); err != nil {
		t.Fatalf("Failed to record second run: %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}

	ignore := cmpopts.IgnoreFields(Run{}, "RunID", "Timestamp")
	for _, got := range runs {
		want := first
		if !got.Success {
			want = second
		}
		if diff := cmp.Diff(want, got, ignore); diff != "" {
			t.Errorf("Run mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestListRunsLimit(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open run history database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 5; i++ {
		if _, err := db.RecordRun(Run{Matched: i}); err != nil {
			t.Fatalf("Failed to record run %d: %v", i, err)
		}
	}

	runs, err := db.ListRuns(3)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("Expected limit of 3 runs, got %d", len(runs))
	}
}
