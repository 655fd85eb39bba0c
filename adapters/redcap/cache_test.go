package redcap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

type fakeEnrollmentSource struct {
	records []study.EnrollmentRecord
	fetches int
}

func (f *fakeEnrollmentSource) Enrollments(context.Context) ([]study.EnrollmentRecord, error) {
	f.fetches++
	return f.records, nil
}

func TestCachedSourceRoundTrip(t *testing.T) {
	upstream := &fakeEnrollmentSource{records: []study.EnrollmentRecord{
		{SourceID: "src-1", StudyID: "PharMe0001", Randomization: "1", CounselDate: "2024-01-10"},
		{SourceID: "src-2", StudyID: "PharMe0002", Randomization: "0"},
	}}
	path := filepath.Join(t.TempDir(), "enrollment.csv")
	source := NewCachedSource(upstream, path)

	first, err := source.Enrollments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if upstream.fetches != 1 {
		t.Fatalf("expected one upstream fetch, got %d", upstream.fetches)
	}

	// The second call is served from the cache.
	second, err := source.Enrollments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if upstream.fetches != 1 {
		t.Errorf("cache miss on second call, fetches = %d", upstream.fetches)
	}
	if len(second) != len(first) {
		t.Fatalf("cache returned %d records, want %d", len(second), len(first))
	}
	for i := range first {
		if second[i] != first[i] {
			t.Errorf("record %d changed across the cache: %+v vs %+v", i, second[i], first[i])
		}
	}
}

func TestCachedSourceRefreshBypassesCache(t *testing.T) {
	upstream := &fakeEnrollmentSource{records: []study.EnrollmentRecord{
		{SourceID: "src-1", StudyID: "PharMe0001", Randomization: "1"},
	}}
	source := NewCachedSource(upstream, filepath.Join(t.TempDir(), "enrollment.csv"))

	if _, err := source.Enrollments(context.Background()); err != nil {
		t.Fatal(err)
	}
	source.Refresh = true
	if _, err := source.Enrollments(context.Background()); err != nil {
		t.Fatal(err)
	}
	if upstream.fetches != 2 {
		t.Errorf("expected a second fetch on refresh, got %d", upstream.fetches)
	}
}

func TestCachedSourceWithoutCacheOrUpstream(t *testing.T) {
	source := NewCachedSource(nil, filepath.Join(t.TempDir(), "enrollment.csv"))
	_, err := source.Enrollments(context.Background())
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Errorf("unexpected error code: %v", err)
	}
}
