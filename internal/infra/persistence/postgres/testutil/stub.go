// Package testutil provides a stub database for postgres provider tests. It
// understands the small statement set issued by the SQL snapshot layer:
// CREATE TABLE, INSERT with ON CONFLICT upserts, DELETE and SELECT with
// equality predicates joined by AND.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

// StubConn records normalized statements and keeps table rows in memory.
type StubConn struct {
	Execs      []string
	Tables     map[string][]map[string]any
	FailExec   bool
	FailBegin  bool
	FailPing   bool
	RowsErr    error
	FailTables map[string]bool
	FailCommit bool
}

var driverSeq atomic.Int64

// NewStubDB registers a sql.DB backed by a fresh in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	return OpenStubDB(conn), conn
}

// OpenStubDB returns a new sql.DB over an existing connection, so tests can
// close one handle and reopen the same data.
func OpenStubDB(conn *StubConn) *sql.DB {
	name := fmt.Sprintf("stubpg%d_%d", time.Now().UnixNano(), driverSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx. Rollback restores the tables as they
// were when the transaction began.
func (c *StubConn) BeginTx(_ context.Context, _ driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c, saved: cloneTables(c.Tables)}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	upper := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(upper, "INSERT INTO"):
		return c.execInsert(query, args)
	case strings.HasPrefix(upper, "DELETE FROM"):
		return c.execDelete(query, args)
	}
	return driver.RowsAffected(0), nil
}

func (c *StubConn) execInsert(query string, args []driver.NamedValue) (driver.Result, error) {
	ins, err := parseInsert(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[ins.table] {
		return nil, fmt.Errorf("exec fail for %s", ins.table)
	}
	if len(ins.cols) != len(args) {
		return nil, fmt.Errorf("column/arg mismatch for %s", ins.table)
	}
	row := make(map[string]any, len(ins.cols))
	for i, col := range ins.cols {
		row[col] = args[i].Value
	}
	if len(ins.conflict) > 0 {
		for _, existing := range c.Tables[ins.table] {
			if !matches(existing, ins.conflict, row) {
				continue
			}
			if len(ins.set) == 0 {
				return driver.RowsAffected(0), nil
			}
			for _, col := range ins.set {
				existing[col] = row[col]
			}
			return driver.RowsAffected(1), nil
		}
	}
	c.Tables[ins.table] = append(c.Tables[ins.table], row)
	return driver.RowsAffected(1), nil
}

func (c *StubConn) execDelete(query string, args []driver.NamedValue) (driver.Result, error) {
	table, where, err := parseDelete(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[table] {
		return nil, fmt.Errorf("exec fail for %s", table)
	}
	want, err := bindWhere(table, where, args)
	if err != nil {
		return nil, err
	}
	var kept []map[string]any
	var n int64
	for _, row := range c.Tables[table] {
		if matches(row, where, want) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	c.Tables[table] = kept
	return driver.RowsAffected(n), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.Tables == nil {
		c.Tables = make(map[string][]map[string]any)
	}
	sel, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	if c.FailTables[sel.table] {
		return nil, fmt.Errorf("query fail for %s", sel.table)
	}
	want, err := bindWhere(sel.table, sel.where, args)
	if err != nil {
		return nil, err
	}
	values := make([][]driver.Value, 0, len(c.Tables[sel.table]))
	for _, row := range c.Tables[sel.table] {
		if !matches(row, sel.where, want) {
			continue
		}
		vals := make([]driver.Value, len(sel.cols))
		for i, col := range sel.cols {
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{cols: sel.cols, rows: values, err: c.RowsErr}, nil
}

type stubTx struct {
	conn  *StubConn
	saved map[string][]map[string]any
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		t.conn.Tables = t.saved
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t *stubTx) Rollback() error {
	t.conn.Tables = t.saved
	return nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func cloneTables(in map[string][]map[string]any) map[string][]map[string]any {
	out := make(map[string][]map[string]any, len(in))
	for table, rows := range in {
		cp := make([]map[string]any, len(rows))
		for i, row := range rows {
			r := make(map[string]any, len(row))
			for k, v := range row {
				r[k] = v
			}
			cp[i] = r
		}
		out[table] = cp
	}
	return out
}

func matches(row map[string]any, cols []string, want map[string]any) bool {
	for _, col := range cols {
		if fmt.Sprint(row[col]) != fmt.Sprint(want[col]) {
			return false
		}
	}
	return true
}

func bindWhere(table string, cols []string, args []driver.NamedValue) (map[string]any, error) {
	if len(args) < len(cols) {
		return nil, fmt.Errorf("missing args for %s", table)
	}
	want := make(map[string]any, len(cols))
	for i, col := range cols {
		want[col] = args[i].Value
	}
	return want, nil
}

type insertStmt struct {
	table    string
	cols     []string
	conflict []string
	set      []string
}

func parseInsert(query string) (insertStmt, error) {
	up := strings.ToUpper(query)
	intoIdx := strings.Index(up, "INTO ")
	if intoIdx == -1 {
		return insertStmt{}, fmt.Errorf("cannot parse insert: %s", query)
	}
	rest := strings.TrimSpace(query[intoIdx+len("INTO "):])
	open := strings.Index(rest, "(")
	closeIdx := strings.Index(rest, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return insertStmt{}, fmt.Errorf("cannot parse insert: %s", query)
	}
	stmt := insertStmt{
		table: tableName(rest[:open]),
		cols:  splitColumns(rest[open+1 : closeIdx]),
	}
	conflictIdx := strings.Index(up, "ON CONFLICT")
	if conflictIdx == -1 {
		return stmt, nil
	}
	tail := query[conflictIdx:]
	co, cc := strings.Index(tail, "("), strings.Index(tail, ")")
	if co == -1 || cc <= co {
		return insertStmt{}, fmt.Errorf("cannot parse conflict target: %s", query)
	}
	stmt.conflict = splitColumns(tail[co+1 : cc])
	if setIdx := strings.Index(strings.ToUpper(tail), " SET "); setIdx != -1 {
		for _, assign := range strings.Split(tail[setIdx+len(" SET "):], ",") {
			col, _, _ := strings.Cut(assign, "=")
			stmt.set = append(stmt.set, strings.ToLower(strings.TrimSpace(col)))
		}
	}
	return stmt, nil
}

func parseDelete(query string) (string, []string, error) {
	lower := strings.ToLower(strings.TrimSpace(query))
	prefix := "delete from "
	if !strings.HasPrefix(lower, prefix) {
		return "", nil, fmt.Errorf("cannot parse delete: %s", query)
	}
	rest := strings.TrimSpace(strings.TrimSpace(query)[len(prefix):])
	whereIdx := strings.Index(strings.ToLower(rest), " where ")
	if whereIdx == -1 {
		return tableName(rest), nil, nil
	}
	return tableName(rest[:whereIdx]), whereColumns(rest[whereIdx+len(" where "):]), nil
}

type selectStmt struct {
	table string
	cols  []string
	where []string
}

func parseSelect(query string) (selectStmt, error) {
	lower := strings.ToLower(query)
	selectPrefix := "select "
	fromToken := " from "
	if !strings.HasPrefix(lower, selectPrefix) {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	fromIdx := strings.Index(lower, fromToken)
	if fromIdx == -1 {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	rest := strings.TrimSpace(query[fromIdx+len(fromToken):])
	if rest == "" {
		return selectStmt{}, fmt.Errorf("cannot parse select: %s", query)
	}
	stmt := selectStmt{
		table: tableName(strings.Fields(rest)[0]),
		cols:  splitColumns(query[len(selectPrefix):fromIdx]),
	}
	if whereIdx := strings.Index(strings.ToLower(rest), " where "); whereIdx != -1 {
		clause := rest[whereIdx+len(" where "):]
		if orderIdx := strings.Index(strings.ToLower(clause), " order by "); orderIdx != -1 {
			clause = clause[:orderIdx]
		}
		stmt.where = whereColumns(clause)
	}
	return stmt, nil
}

func whereColumns(clause string) []string {
	var cols []string
	for _, cond := range strings.Split(strings.ReplaceAll(clause, " AND ", " and "), " and ") {
		col, _, ok := strings.Cut(cond, "=")
		if !ok {
			continue
		}
		cols = append(cols, strings.ToLower(strings.TrimSpace(col)))
	}
	return cols
}

func tableName(raw string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"`))
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
