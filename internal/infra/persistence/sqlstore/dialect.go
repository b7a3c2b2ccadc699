package sqlstore

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"

	"repokit/pkg/domain"
)

// Dialect captures the few points where supported databases differ.
type Dialect struct {
	// Name labels errors and logs.
	Name string
	// PayloadType is the column type holding JSON payloads.
	PayloadType string
	// Placeholder renders the n-th bind parameter, starting at 1.
	Placeholder func(n int) string
}

// QuestionPlaceholder renders "?" for every parameter.
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder renders "$n".
func DollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// TableName derives the table holding kind: "repo_" plus the plural snake
// case of the kind, so "OrderLine" lives in repo_order_lines.
func TableName(kind domain.Kind) string {
	return "repo_" + inflection.Plural(toSnakeCase(string(kind)))
}

// Quote safely quotes a single identifier part.
func Quote(part string) string {
	return `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
}

func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (d Dialect) params(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = d.Placeholder(i + 1)
	}
	return out
}

func (d Dialect) createTable(table string) string {
	return "CREATE TABLE IF NOT EXISTS " + Quote(table) + ` (
	zone TEXT NOT NULL,
	id TEXT NOT NULL,
	seq BIGINT NOT NULL,
	payload ` + d.PayloadType + ` NOT NULL,
	PRIMARY KEY (zone, id)
)`
}

func (d Dialect) selectZone(table string) string {
	return "SELECT id, seq, payload FROM " + Quote(table) + " WHERE zone = " + d.Placeholder(1) + " ORDER BY seq"
}

func (d Dialect) upsert(table string) string {
	p := d.params(4)
	return "INSERT INTO " + Quote(table) + " (zone, id, seq, payload) VALUES (" + strings.Join(p, ",") +
		") ON CONFLICT (zone, id) DO UPDATE SET payload = excluded.payload"
}

func (d Dialect) deleteRow(table string) string {
	return "DELETE FROM " + Quote(table) + " WHERE zone = " + d.Placeholder(1) + " AND id = " + d.Placeholder(2)
}

func (d Dialect) deleteZone(table string) string {
	return "DELETE FROM " + Quote(table) + " WHERE zone = " + d.Placeholder(1)
}
