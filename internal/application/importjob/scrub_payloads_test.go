package importjob_test

import (
	"context"
	"testing"
	"time"

	app "github.com/mohammadpnp/catalog-import/internal/application/importjob"
)

type fakeScrubRepo struct {
	cutoffs []time.Time
}

func (f *fakeScrubRepo) ScrubPayloads(ctx context.Context, finishedBefore time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, finishedBefore)
	return 3, nil
}

func TestScrubPayloadsUsesRetentionCutoff(t *testing.T) {
	t.Parallel()

	repo := &fakeScrubRepo{}
	uc := app.NewScrubPayloads(repo, 24*time.Hour)

	before := time.Now().Add(-24 * time.Hour)
	n, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	after := time.Now().Add(-24 * time.Hour)

	if n != 3 || len(repo.cutoffs) != 1 {
		t.Fatalf("expected one scrub of 3 jobs, got n=%d calls=%d", n, len(repo.cutoffs))
	}
	if repo.cutoffs[0].Before(before) || repo.cutoffs[0].After(after) {
		t.Fatalf("cutoff %s outside [%s, %s]", repo.cutoffs[0], before, after)
	}
}

func TestScrubPayloadsDisabledWithoutRetention(t *testing.T) {
	t.Parallel()

	repo := &fakeScrubRepo{}
	uc := app.NewScrubPayloads(repo, 0)

	if uc.Enabled() {
		t.Fatal("expected scrubbing to be disabled")
	}
	if _, err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.cutoffs) != 0 {
		t.Fatal("expected repository not to be called")
	}
}
