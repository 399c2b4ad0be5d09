package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"triage-interview/internal/core"
	"triage-interview/internal/store"
	"triage-interview/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOracle struct{}

func (s *stubOracle) GenerateQuestions(_ context.Context, _ string, history []pkg.QA, count int) ([]string, error) {
	batch := make([]string, count)
	for i := range batch {
		batch[i] = fmt.Sprintf("Question %d.%d?", len(history)+1, i+1)
	}
	return batch, nil
}

func (s *stubOracle) GenerateReport(_ context.Context, symptoms string, _ []pkg.QA) (*pkg.Report, error) {
	return &pkg.Report{
		Symptoms:      symptoms,
		Diagnosis:     "viral infection",
		TreatmentPlan: "rest and fluids",
	}, nil
}

func setup(t *testing.T) http.Handler {
	t.Helper()
	oracle := &stubOracle{}
	st := store.NewMemory()
	orc := core.NewOrchestrator(st, oracle, oracle, nil)
	return NewServer(orc, nil).Router()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var decoded map[string]any
	if resp.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decoded))
	}
	return resp, decoded
}

func TestStartInterview(t *testing.T) {
	handler := setup(t)

	resp, body := doJSON(t, handler, http.MethodPost, "/api/interviews", map[string]string{
		"symptoms": "fever and crying",
		"user_id":  "u1",
	})

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.NotEmpty(t, body["session_id"])
	assert.Equal(t, "Question 1.1?", body["question"])
}

func TestStartInterviewMissingSymptoms(t *testing.T) {
	handler := setup(t)

	resp, body := doJSON(t, handler, http.MethodPost, "/api/interviews", map[string]string{"user_id": "u1"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, body["error"], "symptoms")
}

func TestStartInterviewBadBody(t *testing.T) {
	handler := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/interviews", bytes.NewBufferString("{not json"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitAnswerRoundTrip(t *testing.T) {
	handler := setup(t)

	_, created := doJSON(t, handler, http.MethodPost, "/api/interviews", map[string]string{
		"symptoms": "fever and crying",
		"user_id":  "u1",
	})
	sessionID := created["session_id"].(string)
	question := created["question"].(string)

	resp, body := doJSON(t, handler, http.MethodPost, "/api/interviews/"+sessionID+"/answers", map[string]string{
		"question": question,
		"answer":   "yes",
	})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, sessionID, body["session_id"])
	assert.NotEmpty(t, body["question"])
	assert.NotEqual(t, question, body["question"])
}

func TestSubmitAnswerMismatch(t *testing.T) {
	handler := setup(t)

	_, created := doJSON(t, handler, http.MethodPost, "/api/interviews", map[string]string{
		"symptoms": "fever", "user_id": "u1",
	})
	sessionID := created["session_id"].(string)

	resp, _ := doJSON(t, handler, http.MethodPost, "/api/interviews/"+sessionID+"/answers", map[string]string{
		"question": "A question never asked?",
		"answer":   "yes",
	})

	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	handler := setup(t)

	resp, _ := doJSON(t, handler, http.MethodPost, "/api/interviews/missing/answers", map[string]string{
		"question": "q", "answer": "yes",
	})

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestFullInterviewAndReport(t *testing.T) {
	handler := setup(t)

	_, created := doJSON(t, handler, http.MethodPost, "/api/interviews", map[string]string{
		"symptoms": "fever and crying",
		"user_id":  "u1",
	})
	sessionID := created["session_id"].(string)
	question := created["question"].(string)

	var last map[string]any
	for i := 0; i < core.Target; i++ {
		resp, body := doJSON(t, handler, http.MethodPost, "/api/interviews/"+sessionID+"/answers", map[string]string{
			"question": question,
			"answer":   "yes",
		})
		require.Equal(t, http.StatusOK, resp.Code, "round %d", i+1)
		last = body
		if q, ok := body["question"].(string); ok {
			question = q
		}
	}
	assert.Equal(t, true, last["done"])

	resp, report := doJSON(t, handler, http.MethodPost, "/api/interviews/"+sessionID+"/report", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "viral infection", report["diagnosis"])
	assert.Equal(t, "rest and fluids", report["treatment_plan"])
}

func TestReportBeforeCompletion(t *testing.T) {
	handler := setup(t)

	_, created := doJSON(t, handler, http.MethodPost, "/api/interviews", map[string]string{
		"symptoms": "fever", "user_id": "u1",
	})
	sessionID := created["session_id"].(string)

	resp, _ := doJSON(t, handler, http.MethodPost, "/api/interviews/"+sessionID+"/report", nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestGetSessionSnapshot(t *testing.T) {
	handler := setup(t)

	_, created := doJSON(t, handler, http.MethodPost, "/api/interviews", map[string]string{
		"symptoms": "fever and crying",
		"user_id":  "u1",
	})
	sessionID := created["session_id"].(string)

	resp, body := doJSON(t, handler, http.MethodGet, "/api/interviews/"+sessionID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "fever and crying", body["symptoms"])
	assert.Len(t, body["questions"], 1)

	resp, _ = doJSON(t, handler, http.MethodGet, "/api/interviews/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHealthz(t *testing.T) {
	handler := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}
