package db

import (
	"context"
	"database/sql"
	"time"
)

type Run struct {
	Mode          string
	Query         string
	StartedAt     time.Time
	FinishedAt    time.Time
	EmailCount    int
	UsernameCount int
}

type Email struct {
	Email  string
	Source string
}

// SaveRun appends one finished run and its emails to the archive in a
// single transaction.
func SaveRun(ctx context.Context, database *sql.DB, run Run, emails []Email) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (mode, query, started_at, finished_at, email_count, username_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Mode, run.Query,
		run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.EmailCount, run.UsernameCount,
	)
	if err != nil {
		return err
	}
	runId, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, email := range emails {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO emails (run_id, email, source) VALUES (?, ?, ?)`,
			runId, email.Email, email.Source,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
