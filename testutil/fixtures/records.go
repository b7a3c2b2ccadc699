package fixtures

import (
	"testing"

	"repokit/pkg/domain"
)

// Insert builds an insert record or fails the test.
func Insert(t testing.TB, e domain.Entity) domain.Record {
	t.Helper()
	rec, err := domain.NewInsertRecord(e)
	if err != nil {
		t.Fatalf("insert record: %v", err)
	}
	return rec
}

// Update builds an update record or fails the test.
func Update(t testing.TB, e domain.Entity) domain.Record {
	t.Helper()
	rec, err := domain.NewUpdateRecord(e)
	if err != nil {
		t.Fatalf("update record: %v", err)
	}
	return rec
}

// Delete builds a delete record or fails the test.
func Delete(t testing.TB, kind domain.Kind, id any) domain.Record {
	t.Helper()
	rec, err := domain.NewDeleteRecord(kind, id)
	if err != nil {
		t.Fatalf("delete record: %v", err)
	}
	return rec
}
