package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"triage-interview/pkg"

	"github.com/google/uuid"
)

// Postgres implements Store on top of database/sql. Appends use single
// UPDATE statements with JSONB concatenation so concurrent rounds on the
// same session never lose an element to a stale read-modify-write.
type Postgres struct {
	DB *sql.DB
}

// NewPostgres constructs a Postgres store from an existing sql.DB. The
// caller is responsible for managing the connection lifecycle.
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{DB: db} }

const sessionColumns = `id, user_id, symptoms, questions, answers, report, created_at, updated_at`

// Get retrieves a session by id.
func (p *Postgres) Get(ctx context.Context, id string) (*pkg.Session, error) {
	row := p.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// Create inserts a new session, assigning a fresh UUID.
func (p *Postgres) Create(ctx context.Context, sess *pkg.Session) (*pkg.Session, error) {
	questions, err := json.Marshal(emptyIfNilQuestions(sess.Questions))
	if err != nil {
		return nil, err
	}
	answers, err := json.Marshal(emptyIfNilAnswers(sess.Answers))
	if err != nil {
		return nil, err
	}
	row := p.DB.QueryRowContext(ctx,
		`INSERT INTO sessions (id, user_id, symptoms, questions, answers)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING `+sessionColumns,
		uuid.NewString(), sess.UserID, sess.Symptoms, string(questions), string(answers))
	return scanSession(row)
}

// AppendAnswer appends one QA pair atomically and returns the new state.
func (p *Postgres) AppendAnswer(ctx context.Context, id string, qa pkg.QA) (*pkg.Session, error) {
	elem, err := json.Marshal(qa)
	if err != nil {
		return nil, err
	}
	row := p.DB.QueryRowContext(ctx,
		`UPDATE sessions
         SET answers = answers || $2::jsonb, updated_at = NOW()
         WHERE id = $1
         RETURNING `+sessionColumns, id, string(elem))
	return scanSession(row)
}

// AppendQuestion appends one question, guarded by the expected list length
// so concurrent rounds cannot race the budget.
func (p *Postgres) AppendQuestion(ctx context.Context, id string, question string, expectedLen int) (*pkg.Session, error) {
	elem, err := json.Marshal(question)
	if err != nil {
		return nil, err
	}
	row := p.DB.QueryRowContext(ctx,
		`UPDATE sessions
         SET questions = questions || $2::jsonb, updated_at = NOW()
         WHERE id = $1 AND jsonb_array_length(questions) = $3
         RETURNING `+sessionColumns, id, string(elem), expectedLen)
	sess, err := scanSession(row)
	if errors.Is(err, ErrNotFound) {
		if _, getErr := p.Get(ctx, id); getErr == nil {
			return nil, ErrConflict
		}
		return nil, ErrNotFound
	}
	return sess, err
}

// SetReport writes the report only when none exists yet, so two concurrent
// generators cannot both win.
func (p *Postgres) SetReport(ctx context.Context, id string, report *pkg.Report) (*pkg.Session, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	row := p.DB.QueryRowContext(ctx,
		`UPDATE sessions
         SET report = $2::jsonb, updated_at = NOW()
         WHERE id = $1 AND report IS NULL
         RETURNING `+sessionColumns, id, string(payload))
	sess, err := scanSession(row)
	if errors.Is(err, ErrNotFound) {
		// Either the session is missing or the report was already set;
		// a second lookup distinguishes the two.
		if existing, getErr := p.Get(ctx, id); getErr == nil && existing.Reported() {
			return nil, ErrReportExists
		}
		return nil, ErrNotFound
	}
	return sess, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*pkg.Session, error) {
	var (
		sess      pkg.Session
		questions []byte
		answers   []byte
		report    []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Symptoms, &questions, &answers, &report, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &sess.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal(answers, &sess.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if report != nil {
		var r pkg.Report
		if err := json.Unmarshal(report, &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		sess.Report = &r
	}
	sess.CreatedAt = createdAt
	sess.UpdatedAt = updatedAt
	return &sess, nil
}

func emptyIfNilQuestions(qs []string) []string {
	if qs == nil {
		return []string{}
	}
	return qs
}

func emptyIfNilAnswers(as []pkg.QA) []pkg.QA {
	if as == nil {
		return []pkg.QA{}
	}
	return as
}
