package sqlstore

import (
	"strings"
	"testing"

	"repokit/pkg/domain"
)

func TestTableName(t *testing.T) {
	cases := map[domain.Kind]string{
		"widget":    "repo_widgets",
		"OrderLine": "repo_order_lines",
		"person":    "repo_people",
		"HTTPLog":   "repo_http_logs",
	}
	for kind, want := range cases {
		if got := TableName(kind); got != want {
			t.Fatalf("TableName(%q) = %q, want %q", kind, got, want)
		}
	}
}

func TestQuote(t *testing.T) {
	if got := Quote(`we"ird`); got != `"we""ird"` {
		t.Fatalf("unexpected quoting %s", got)
	}
}

func TestDialectStatements(t *testing.T) {
	pg := Dialect{Name: "pg", PayloadType: "JSONB", Placeholder: DollarPlaceholder}
	if got := pg.upsert("repo_widgets"); !strings.Contains(got, "VALUES ($1,$2,$3,$4)") || !strings.Contains(got, "ON CONFLICT (zone, id)") {
		t.Fatalf("unexpected upsert %s", got)
	}
	if got := pg.deleteRow("repo_widgets"); got != `DELETE FROM "repo_widgets" WHERE zone = $1 AND id = $2` {
		t.Fatalf("unexpected delete %s", got)
	}
	lite := Dialect{Name: "sqlite", PayloadType: "BLOB", Placeholder: QuestionPlaceholder}
	if got := lite.selectZone("repo_widgets"); got != `SELECT id, seq, payload FROM "repo_widgets" WHERE zone = ? ORDER BY seq` {
		t.Fatalf("unexpected select %s", got)
	}
	if got := lite.createTable("repo_widgets"); !strings.Contains(got, "payload BLOB NOT NULL") {
		t.Fatalf("unexpected ddl %s", got)
	}
}
