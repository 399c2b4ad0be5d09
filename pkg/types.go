package pkg

import "time"

// Session is the persistent record of one diagnostic interview. Questions
// and answers are append-only: every completed round records exactly one
// answer, plus the follow-up question for the next round while the question
// budget allows.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Symptoms  string    `json:"symptoms"`
	Questions []string  `json:"questions"`
	Answers   []QA      `json:"answers"`
	Report    *Report   `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QA pairs an issued question with the caller's answer. Answers are stored
// in the order rounds occurred.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Report is the structured diagnosis produced once the interview is
// complete. Field names mirror the oracle's output schema.
type Report struct {
	Symptoms               string `json:"symptoms"`
	Diagnosis              string `json:"diagnosis"`
	PossibleCause          string `json:"possible_cause"`
	TreatmentPlan          string `json:"treatment_plan"`
	FollowUpRecommendation string `json:"follow_up_recommendation"`
}

// PendingQuestion returns the latest issued question that has no recorded
// answer yet, or the empty string when every question has been answered.
func (s *Session) PendingQuestion() string {
	if len(s.Answers) < len(s.Questions) {
		return s.Questions[len(s.Answers)]
	}
	return ""
}

// Reported reports whether the session reached its terminal state.
func (s *Session) Reported() bool { return s.Report != nil }
