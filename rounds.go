package coverage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultCommitEvery is the number of stored scores after which Rounds
// commits its transaction.
const DefaultCommitEvery = 10000

// A CoordinateSource supplies deduplicated coordinates to score.
type CoordinateSource interface {
	Coordinates(ctx context.Context) ([]LatLng, error)
}

// A ScoreSink persists scores, keyed by coordinate. Storing the same
// coordinate twice overwrites the first score.
type ScoreSink interface {
	StoreScore(ctx context.Context, c LatLng, score int) error
	Flush(ctx context.Context) error
}

// Rounds is a CoordinateSource and ScoreSink backed by the rounds table of
// a SQLite database. Scores are written to the streetview_coverage column of
// every row with the same coordinate.
type Rounds struct {
	mutex        sync.Mutex
	db           *sql.DB
	onlyUnscored bool
	commitEvery  int
	tx           *sql.Tx
	stmt         *sql.Stmt
	pending      int
}

// A RoundsOption sets an option on a Rounds.
type RoundsOption func(*Rounds)

// OpenRounds opens the SQLite database at dsn.
func OpenRounds(dsn string, options ...RoundsOption) (*Rounds, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return NewRounds(db, options...), nil
}

// NewRounds returns a new Rounds using db.
func NewRounds(db *sql.DB, options ...RoundsOption) *Rounds {
	r := &Rounds{
		db:          db,
		commitEvery: DefaultCommitEvery,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// WithOnlyUnscored restricts Coordinates to coordinates without a score.
func WithOnlyUnscored(onlyUnscored bool) RoundsOption {
	return func(r *Rounds) {
		r.onlyUnscored = onlyUnscored
	}
}

func WithCommitEvery(commitEvery int) RoundsOption {
	return func(r *Rounds) {
		r.commitEvery = max(commitEvery, 1)
	}
}

// Coordinates implements CoordinateSource.Coordinates.
func (r *Rounds) Coordinates(ctx context.Context) ([]LatLng, error) {
	query := "SELECT lat, lng FROM rounds GROUP BY lat, lng ORDER BY lat, lng"
	if r.onlyUnscored {
		query = "SELECT lat, lng FROM rounds WHERE streetview_coverage IS NULL GROUP BY lat, lng ORDER BY lat, lng"
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coords []LatLng
	for rows.Next() {
		var c LatLng
		if err := rows.Scan(&c.Lat, &c.Lng); err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}
	return coords, rows.Err()
}

// StoreScore implements ScoreSink.StoreScore.
func (r *Rounds) StoreScore(ctx context.Context, c LatLng, score int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.tx == nil {
		// The transaction outlives ctx so that Flush can commit scores stored
		// before ctx was cancelled.
		tx, err := r.db.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, "UPDATE rounds SET streetview_coverage = ? WHERE lat = ? AND lng = ?")
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		r.tx, r.stmt = tx, stmt
	}

	if _, err := r.stmt.ExecContext(ctx, score, c.Lat, c.Lng); err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	r.pending++
	if r.pending >= r.commitEvery {
		return r.commit()
	}
	return nil
}

// Flush implements ScoreSink.Flush.
func (r *Rounds) Flush(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.commit()
}

// Close commits any pending scores and closes the database.
func (r *Rounds) Close() error {
	r.mutex.Lock()
	err := r.commit()
	r.mutex.Unlock()
	if closeErr := r.db.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (r *Rounds) commit() error {
	if r.tx == nil {
		return nil
	}
	tx, stmt := r.tx, r.stmt
	r.tx, r.stmt, r.pending = nil, nil, 0
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
