package core

import "errors"

var (
	// ErrSessionNotFound is returned when the referenced session does not
	// exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCreate is returned when the store rejects a new session.
	ErrSessionCreate = errors.New("failed to create session")
	// ErrSessionUpdate is returned when persisting a round fails.
	ErrSessionUpdate = errors.New("failed to update session")
	// ErrReportUpdate is returned when persisting the report fails.
	ErrReportUpdate = errors.New("failed to store report")
	// ErrQuestionMismatch is returned when a submitted answer references a
	// question other than the one currently pending.
	ErrQuestionMismatch = errors.New("answer does not match the pending question")
	// ErrInterviewComplete is returned when an answer arrives after every
	// question has been answered.
	ErrInterviewComplete = errors.New("interview already complete")
	// ErrInterviewActive is returned when a report is requested before the
	// interview has finished.
	ErrInterviewActive = errors.New("interview still in progress")
)
