package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"repokit/pkg/domain"
	"repokit/pkg/query"
	"repokit/testutil/fixtures"
)

func TestProviderZoneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	main := NewProvider(store, domain.EmptyZone)
	test := NewProvider(store, domain.TestZone)

	if err := main.Commit(ctx, []domain.Record{fixtures.Insert(t, fixtures.Widget{Id: "a", Name: "main"})}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, ok, _ := test.Get(ctx, fixtures.WidgetKind, "a"); ok {
		t.Fatalf("test zone must not see default zone rows")
	}
	n, err := main.Count(ctx, fixtures.WidgetKind, nil)
	if err != nil || n != 1 {
		t.Fatalf("expected one row in default zone, got %d (%v)", n, err)
	}
	if test.Zone() != domain.TestZone || main.Store() != store {
		t.Fatalf("unexpected provider wiring")
	}
}

func TestProviderCommitOrder(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(nil, domain.EmptyZone)
	id := uuid.New()
	err := p.Commit(ctx, []domain.Record{
		fixtures.Insert(t, &fixtures.Note{ID: id, Body: "first"}),
		fixtures.Delete(t, fixtures.NoteKind, id),
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, ok, _ := p.Get(ctx, fixtures.NoteKind, id); ok {
		t.Fatalf("delete after insert should leave nothing")
	}

	err = p.Commit(ctx, []domain.Record{
		fixtures.Delete(t, fixtures.NoteKind, id),
		fixtures.Insert(t, &fixtures.Note{ID: id, Body: "second"}),
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, ok, err := p.Get(ctx, fixtures.NoteKind, id)
	if err != nil || !ok || got.(*fixtures.Note).Body != "second" {
		t.Fatalf("insert after delete should win, got %+v %v", got, err)
	}
}

func TestProviderQuery(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(nil, domain.EmptyZone)
	var recs []domain.Record
	for i := 0; i < 5; i++ {
		recs = append(recs, fixtures.Insert(t, fixtures.Account{Login: string(rune('a' + i)), Email: "x@example.com"}))
	}
	if err := p.Commit(ctx, recs); err != nil {
		t.Fatalf("commit: %v", err)
	}
	rows, err := p.Query(ctx, fixtures.AccountKind, query.New("Login", ">=", "c"), query.PageInfo{Size: 2, Number: 1}.ListArgs())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 || rows[0].(fixtures.Account).Login != "c" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestStoreExportImport(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := NewProvider(store, domain.TestZone)
	err := p.Commit(ctx, []domain.Record{
		fixtures.Insert(t, fixtures.Widget{Id: "a", Name: "alpha"}),
		fixtures.Insert(t, fixtures.Session{Token: "tok", UserID: "u1"}),
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	snap := store.ExportState(domain.TestZone)
	if len(snap.Kinds) != 2 || len(snap.Rows[fixtures.SessionKind]) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	other := NewStore()
	if err := other.ImportState(domain.EmptyZone, snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	got, ok, _ := NewProvider(other, domain.EmptyZone).Get(ctx, fixtures.SessionKind, "tok")
	if !ok || got.(fixtures.Session).UserID != "u1" {
		t.Fatalf("expected imported session, got %+v", got)
	}

	bad := Snapshot{Rows: map[domain.Kind][]domain.Entity{fixtures.WidgetKind: {fixtures.Account{Login: "x"}}}}
	if err := other.ImportState(domain.EmptyZone, bad); err == nil {
		t.Fatalf("expected kind mismatch error")
	}
	if _, ok, _ := NewProvider(other, domain.EmptyZone).Get(ctx, fixtures.SessionKind, "tok"); !ok {
		t.Fatalf("rejected import replaced the zone")
	}
}

func TestProviderSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := NewProvider(store, domain.TestZone)
	err := p.Commit(ctx, []domain.Record{
		fixtures.Insert(t, fixtures.Widget{Id: "b", Name: "beta"}),
		fixtures.Insert(t, fixtures.Widget{Id: "a", Name: "alpha"}),
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := NewProvider(store, domain.EmptyZone).Commit(ctx, []domain.Record{fixtures.Insert(t, fixtures.Widget{Id: "z", Name: "other"})}); err != nil {
		t.Fatalf("commit other zone: %v", err)
	}
	rows, err := p.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	widgets := rows[fixtures.WidgetKind]
	if len(rows) != 1 || len(widgets) != 2 || widgets[0].(fixtures.Widget).Id != "b" {
		t.Fatalf("unexpected snapshot %+v", rows)
	}
	if err := p.Commit(ctx, []domain.Record{fixtures.Delete(t, fixtures.WidgetKind, "b")}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(widgets) != 2 {
		t.Fatalf("snapshot changed after commit")
	}
}
