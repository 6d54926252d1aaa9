package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/decibelcooper/phiana/frame"
)

// SQLiteWriter stores one row per kept event in a single transaction,
// committed on Close. Missing values are stored as NULL. An existing table
// of the same name is replaced.
type SQLiteWriter struct {
	db   *sqlx.DB
	tx   *sqlx.Tx
	stmt *sqlx.Stmt
	args []interface{}
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func CreateSQLite(path, table string, columns []string) (*SQLiteWriter, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, &ErrOpenFile{Path: path, Err: err}
	}

	defs := []string{quote(EntryColumn) + " INTEGER"}
	names := []string{quote(EntryColumn)}
	for _, c := range columns {
		defs = append(defs, quote(c)+" REAL")
		names = append(names, quote(c))
	}

	if _, err := db.Exec("DROP TABLE IF EXISTS " + quote(table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: could not drop table %q: %w", table, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(defs, ", "))
	if _, err := db.Exec(create); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: could not create table %q: %w", table, err)
	}

	tx, err := db.Beginx()
	if err != nil {
		db.Close()
		return nil, err
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(names, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))
	stmt, err := tx.Preparex(insert)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}
	return &SQLiteWriter{db: db, tx: tx, stmt: stmt, args: make([]interface{}, len(names))}, nil
}

func (w *SQLiteWriter) Write(rec frame.Record) error {
	w.args[0] = rec.Event().Entry
	for i, v := range rec.Values() {
		w.args[i+1] = sql.NullFloat64{Float64: v.F, Valid: v.OK}
	}
	_, err := w.stmt.Exec(w.args...)
	return err
}

func (w *SQLiteWriter) Close() error {
	w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return err
	}
	return w.db.Close()
}
