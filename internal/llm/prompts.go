package llm

import (
	"fmt"
	"strings"

	"triage-interview/pkg"
)

// prompts.go defines the prompts sent to the oracle. Keeping these in a
// separate file makes them easy to tweak without touching the rest of the
// code.

const (
	// SystemPrompt frames every oracle call. The service targets new
	// parents describing their baby's symptoms.
	SystemPrompt = "you are a expert diagnostic AI assistant, you help new parents understand illnesses with their babies and diagnose issues"

	questionsFunction = "get_diagnosis_questions"
	reportFunction    = "get_diagnosis_report"
)

// questionPrompt asks for the first batch of diagnosis questions, before any
// answers exist.
func questionPrompt(symptoms string, count int) string {
	return fmt.Sprintf(`The patient is currently experiencing these symptoms in their words; %q. Can you generate %d yes or no questions to help diagnose these symptoms?`, symptoms, count)
}

// followUpPrompt asks for additional questions given the rounds so far.
func followUpPrompt(symptoms string, history []pkg.QA, count int) string {
	return fmt.Sprintf(`The patient is currently experiencing these symptoms in their words; %q. The patient was asked the following questions. Here are the questions and their answers: %q. Can you generate %d additional yes or no questions to help diagnose these symptoms?`,
		symptoms, serializeHistory(history), count)
}

// reportPrompt asks for the final structured diagnosis.
func reportPrompt(symptoms string, history []pkg.QA) string {
	return fmt.Sprintf(`The patient is currently experiencing these symptoms in their words; %q. The patient was asked the following questions. Here are the questions and their answers: %q. Based on the symptoms and answers, provide a diagnosis, its possible cause, a treatment plan and a follow-up recommendation.`,
		symptoms, serializeHistory(history))
}

func serializeHistory(history []pkg.QA) string {
	parts := make([]string, 0, len(history))
	for _, qa := range history {
		parts = append(parts, qa.Question+": "+qa.Answer)
	}
	return strings.Join(parts, ", ")
}
