package sqlstore

import (
	"context"
	"errors"
	"testing"

	"repokit/internal/infra/persistence/postgres/testutil"
	"repokit/pkg/domain"
	"repokit/testutil/fixtures"
)

var stubDialect = Dialect{Name: "stub", PayloadType: "JSONB", Placeholder: DollarPlaceholder}

func TestProviderReopenKeepsOrder(t *testing.T) {
	ctx := context.Background()
	db, conn := testutil.NewStubDB()
	p, err := Open(ctx, db, stubDialect, fixtures.Registry(), domain.EmptyZone)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	err = p.Commit(ctx, []domain.Record{
		fixtures.Insert(t, fixtures.Widget{Id: "a", Name: "alpha"}),
		fixtures.Insert(t, fixtures.Widget{Id: "b", Name: "beta"}),
		fixtures.Insert(t, fixtures.Widget{Id: "c", Name: "gamma"}),
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	err = p.Commit(ctx, []domain.Record{
		fixtures.Delete(t, fixtures.WidgetKind, "a"),
		fixtures.Insert(t, fixtures.Widget{Id: "a", Name: "alpha2"}),
		fixtures.Update(t, fixtures.Widget{Id: "b", Name: "beta2"}),
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(ctx, testutil.OpenStubDB(conn), stubDialect, fixtures.Registry(), domain.EmptyZone)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rows, err := reopened.Query(ctx, fixtures.WidgetKind, nil, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var names []string
	for _, r := range rows {
		names = append(names, r.(fixtures.Widget).Name)
	}
	want := []string{"beta2", "gamma", "alpha2"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestProviderRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	db, conn := testutil.NewStubDB()
	p, err := Open(ctx, db, stubDialect, nil, domain.EmptyZone)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	err = p.Commit(ctx, []domain.Record{fixtures.Insert(t, fixtures.Widget{Id: "a", Name: "alpha"})})
	if !errors.Is(err, domain.ErrUnknownKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
	if err := p.Commit(ctx, []domain.Record{{}}); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected identity error, got %v", err)
	}
	if len(conn.Execs) != 0 {
		t.Fatalf("rejected batches must not reach the database: %v", conn.Execs)
	}
}

func TestProviderDecodeFailure(t *testing.T) {
	ctx := context.Background()
	db, conn := testutil.NewStubDB()
	conn.Tables["repo_widgets"] = []map[string]any{{"zone": "", "id": `"a"`, "seq": int64(1), "payload": []byte(`{not json`)}}
	if _, err := Open(ctx, db, stubDialect, fixtures.Registry(), domain.EmptyZone); err == nil {
		t.Fatalf("expected decode error")
	}
}
