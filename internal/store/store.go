// Package store persists interview sessions. The interface lives here so the
// orchestrator depends on the contract, not on Postgres: production uses the
// Postgres implementation, tests and database-less runs use the in-memory one.
package store

import (
	"context"
	"errors"

	"triage-interview/pkg"
)

var (
	// ErrNotFound is returned when no session exists for the given id.
	ErrNotFound = errors.New("session not found")
	// ErrReportExists is returned by SetReport when a report has already
	// been written for the session.
	ErrReportExists = errors.New("report already exists")
	// ErrConflict is returned by AppendQuestion when the question list
	// changed since the caller read it.
	ErrConflict = errors.New("session changed concurrently")
)

// Store provides session persistence. Appends are atomic: two concurrent
// appends to the same session must both be durably recorded, never resolved
// by overwriting one with the other.
type Store interface {
	// Get retrieves a session by id.
	Get(ctx context.Context, id string) (*pkg.Session, error)

	// Create stores a new session and assigns its id.
	Create(ctx context.Context, sess *pkg.Session) (*pkg.Session, error)

	// AppendAnswer appends one question/answer pair and returns the
	// post-append session state.
	AppendAnswer(ctx context.Context, id string, qa pkg.QA) (*pkg.Session, error)

	// AppendQuestion appends one follow-up question, conditional on the
	// question list still holding expectedLen elements, and returns the
	// post-append session state. A concurrent append surfaces as
	// ErrConflict so callers can re-read instead of overshooting the
	// question budget.
	AppendQuestion(ctx context.Context, id string, question string, expectedLen int) (*pkg.Session, error)

	// SetReport writes the diagnosis report exactly once. A second write
	// for the same session returns ErrReportExists.
	SetReport(ctx context.Context, id string, report *pkg.Report) (*pkg.Session, error)
}
