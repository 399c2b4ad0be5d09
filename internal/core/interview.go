// Package core owns the interview state machine: when another question is
// needed, how many remain in the budget, and when a session becomes eligible
// for its report.
package core

import (
	"context"
	"errors"
	"fmt"

	"triage-interview/internal/llm"
	"triage-interview/internal/store"
	"triage-interview/pkg"

	"go.uber.org/zap"
)

// Target is the fixed number of questions an interview asks before it
// becomes eligible for report generation.
const Target = 10

// Orchestrator drives interview sessions. It is the only component that
// talks to the store and the oracles; transport handlers call it with
// (sessionID, symptoms | answer) and nothing else.
type Orchestrator struct {
	store     store.Store
	questions llm.QuestionOracle
	reports   llm.ReportOracle
	log       *zap.Logger
}

// NewOrchestrator wires the orchestrator to its collaborators.
func NewOrchestrator(st store.Store, questions llm.QuestionOracle, reports llm.ReportOracle, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{store: st, questions: questions, reports: reports, log: log}
}

// StepResult is the outcome of one submitted answer: either the next
// question, or Done when the question budget is exhausted.
type StepResult struct {
	Session  *pkg.Session
	Question string
	Done     bool
}

// StartInterview asks the oracle for an opening batch of questions, keeps
// the first one, and persists a new session holding it.
func (o *Orchestrator) StartInterview(ctx context.Context, symptoms, userID string) (*pkg.Session, error) {
	batch, err := o.questions.GenerateQuestions(ctx, symptoms, nil, Target)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: empty question batch", llm.ErrOracleContract)
	}

	// The oracle proposes up to Target questions; only the first is issued
	// now. Pacing stays one question per round, and later rounds re-ask
	// with fresh interview context instead of draining this batch.
	sess, err := o.store.Create(ctx, &pkg.Session{
		UserID:    userID,
		Symptoms:  symptoms,
		Questions: []string{batch[0]},
		Answers:   []pkg.QA{},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreate, err)
	}
	o.log.Info("interview started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.Int("proposed_questions", len(batch)))
	return sess, nil
}

// SubmitAnswer records one answer and, while the budget is unmet, issues the
// next question. The answer is committed before the oracle is consulted, so
// an oracle failure never loses a recorded answer; the caller can retry and
// will resume from the persisted state.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID, question, answer string) (*StepResult, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, o.mapStoreErr(err, ErrSessionUpdate)
	}
	if sess.Reported() {
		return nil, ErrInterviewComplete
	}

	switch pending := sess.PendingQuestion(); {
	case pending != "":
		if question != pending {
			return nil, fmt.Errorf("%w: pending %q", ErrQuestionMismatch, pending)
		}
		sess, err = o.store.AppendAnswer(ctx, sessionID, pkg.QA{Question: question, Answer: answer})
		if err != nil {
			return nil, o.mapStoreErr(err, ErrSessionUpdate)
		}
	case len(sess.Questions) >= Target:
		return nil, ErrInterviewComplete
	default:
		// Every issued question is answered but the budget is unmet: a
		// previous round committed its answer and then failed before
		// issuing the next question. Accept a retry of that exact answer
		// without recording it twice; a different answer to the same
		// question (a concurrent submission that arrived second) is still
		// recorded. Either way the round resumes at question generation.
		last := sess.Answers[len(sess.Answers)-1]
		if question != last.Question {
			return nil, fmt.Errorf("%w: last answered %q", ErrQuestionMismatch, last.Question)
		}
		if answer != last.Answer {
			sess, err = o.store.AppendAnswer(ctx, sessionID, pkg.QA{Question: question, Answer: answer})
			if err != nil {
				return nil, o.mapStoreErr(err, ErrSessionUpdate)
			}
		}
	}

	// Recomputed from persisted state every round, so the budget
	// self-corrects even if a prior round appended more than one question.
	remaining := Target - len(sess.Questions)
	if remaining <= 0 {
		o.log.Info("interview complete",
			zap.String("session_id", sess.ID),
			zap.Int("answers", len(sess.Answers)))
		return &StepResult{Session: sess, Done: true}, nil
	}

	batch, err := o.questions.GenerateQuestions(ctx, sess.Symptoms, sess.Answers, remaining)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: empty question batch", llm.ErrOracleContract)
	}
	next := batch[0]
	sess, err = o.store.AppendQuestion(ctx, sessionID, next, len(sess.Questions))
	if errors.Is(err, store.ErrConflict) {
		// Another round appended its question first. Surface that question
		// instead of pushing the list past the budget.
		sess, err = o.store.Get(ctx, sessionID)
		if err != nil {
			return nil, o.mapStoreErr(err, ErrSessionUpdate)
		}
		if len(sess.Questions) >= Target && len(sess.Answers) >= len(sess.Questions) {
			return &StepResult{Session: sess, Done: true}, nil
		}
		return &StepResult{Session: sess, Question: sess.Questions[len(sess.Questions)-1]}, nil
	}
	if err != nil {
		return nil, o.mapStoreErr(err, ErrSessionUpdate)
	}
	o.log.Info("question issued",
		zap.String("session_id", sess.ID),
		zap.Int("asked", len(sess.Questions)),
		zap.Int("answered", len(sess.Answers)))
	return &StepResult{Session: sess, Question: next}, nil
}

// GenerateReport produces and persists the diagnosis report for a finished
// interview. The first successful write is terminal: subsequent calls return
// the stored report without another oracle call.
func (o *Orchestrator) GenerateReport(ctx context.Context, sessionID string) (*pkg.Report, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, o.mapStoreErr(err, ErrReportUpdate)
	}
	if sess.Reported() {
		return sess.Report, nil
	}
	if len(sess.Questions) < Target || len(sess.Answers) < len(sess.Questions) {
		return nil, fmt.Errorf("%w: %d/%d questions answered",
			ErrInterviewActive, len(sess.Answers), Target)
	}

	report, err := o.reports.GenerateReport(ctx, sess.Symptoms, sess.Answers)
	if err != nil {
		return nil, err
	}
	sess, err = o.store.SetReport(ctx, sessionID, report)
	if errors.Is(err, store.ErrReportExists) {
		// A concurrent call won the conditional write; its report is the
		// terminal one.
		sess, err = o.store.Get(ctx, sessionID)
		if err != nil {
			return nil, o.mapStoreErr(err, ErrReportUpdate)
		}
		return sess.Report, nil
	}
	if err != nil {
		return nil, o.mapStoreErr(err, ErrReportUpdate)
	}
	o.log.Info("report generated", zap.String("session_id", sess.ID))
	return sess.Report, nil
}

// GetSession exposes the persisted session state, letting a client recover
// the pending question after losing a response.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*pkg.Session, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, o.mapStoreErr(err, ErrSessionUpdate)
	}
	return sess, nil
}

func (o *Orchestrator) mapStoreErr(err error, fallback error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
