package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/carepilot/docintel/internal/model"
)

// scannable covers *sql.Row, *sql.Rows, pgx.Row and pgx.Rows so run
// and record scanning is shared between both backends.
type scannable interface {
	Scan(dest ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func marshalRunJSON(run *model.Run) (string, string, error) {
	missingJSON, err := json.Marshal(run.Missing)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal run missing")
	}
	usageJSON, err := json.Marshal(run.Usage)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal run usage")
	}
	return string(missingJSON), string(usageJSON), nil
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var missing, errText, usage sql.NullString
	var finished sql.NullTime

	err := row.Scan(&r.ID, &r.DocumentID, &r.UserID, &r.DocType, &r.Status,
		&r.Passes, &missing, &errText, &usage, &r.StartedAt, &finished)
	if isNoRows(err) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}

	if missing.Valid && missing.String != "" {
		if err := json.Unmarshal([]byte(missing.String), &r.Missing); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal run missing")
		}
	}
	if usage.Valid && usage.String != "" {
		if err := json.Unmarshal([]byte(usage.String), &r.Usage); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal run usage")
		}
	}
	r.Error = errText.String
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

// scanRecord reads a record row where json columns arrive as TEXT.
func scanRecord(row scannable) (*model.Record, error) {
	var r model.Record
	var fieldsJSON string
	var missing sql.NullString

	err := row.Scan(&r.ID, &r.RunID, &r.UserID, &r.DocumentID, &r.DocType,
		&fieldsJSON, &missing, &r.ExtractedDate)
	if isNoRows(err) {
		return nil, eris.New("record not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan record")
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &r.Fields); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal record fields")
	}
	if missing.Valid && missing.String != "" {
		if err := json.Unmarshal([]byte(missing.String), &r.Missing); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal record missing")
		}
	}
	return &r, nil
}
