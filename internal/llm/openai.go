package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"triage-interview/pkg"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	// ErrOracleContract is returned when the oracle call fails or its
	// response does not match the requested structured-output shape.
	ErrOracleContract = errors.New("oracle contract violation")
	// ErrOracleTimeout is returned when an oracle call exceeds its deadline.
	ErrOracleTimeout = errors.New("oracle timeout")
)

// QuestionOracle produces follow-up yes/no questions for an interview. The
// returned batch may hold up to count questions; callers decide how many to
// consume.
type QuestionOracle interface {
	GenerateQuestions(ctx context.Context, symptoms string, history []pkg.QA, count int) ([]string, error)
}

// ReportOracle produces the structured diagnosis report for a completed
// interview.
type ReportOracle interface {
	GenerateReport(ctx context.Context, symptoms string, history []pkg.QA) (*pkg.Report, error)
}

// OpenAIClient implements both oracles against the OpenAI chat completion
// API using function-calling structured output.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// Config carries OpenAI connection settings. BaseURL is optional and exists
// so tests can point the client at a local server.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAIClient constructs an OpenAI-backed oracle client.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		timeout: timeout,
	}
}

// GenerateQuestions asks the oracle for count yes/no diagnosis questions and
// parses the structured response into a slice of strings. An empty batch is
// a contract violation: every caller needs at least one question.
func (c *OpenAIClient) GenerateQuestions(ctx context.Context, symptoms string, history []pkg.QA, count int) ([]string, error) {
	prompt := questionPrompt(symptoms, count)
	if len(history) > 0 {
		prompt = followUpPrompt(symptoms, history, count)
	}

	fn := openai.FunctionDefinition{
		Name:        questionsFunction,
		Description: fmt.Sprintf("Get %d yes/no diagnosis questions to provide a diagnosis", count),
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"diagnosis_questions": {
					Type:        jsonschema.Array,
					Items:       &jsonschema.Definition{Type: jsonschema.String},
					Description: fmt.Sprintf("An array of %d diagnosis questions to ask a patient", count),
				},
			},
		},
	}

	args, err := c.call(ctx, prompt, fn)
	if err != nil {
		return nil, err
	}
	var payload struct {
		DiagnosisQuestions []string `json:"diagnosis_questions"`
	}
	if err := json.Unmarshal([]byte(args), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode %s arguments: %v", ErrOracleContract, questionsFunction, err)
	}
	if len(payload.DiagnosisQuestions) == 0 {
		return nil, fmt.Errorf("%w: %s returned no questions", ErrOracleContract, questionsFunction)
	}
	return payload.DiagnosisQuestions, nil
}

// GenerateReport asks the oracle for the final structured diagnosis. Absent
// fields decode to empty strings rather than failing.
func (c *OpenAIClient) GenerateReport(ctx context.Context, symptoms string, history []pkg.QA) (*pkg.Report, error) {
	fields := map[string]string{
		"symptoms":                 "The symptoms as described by the patient",
		"diagnosis":                "The most likely diagnosis given the symptoms and answers",
		"possible_cause":           "The likely cause of the diagnosed condition",
		"treatment_plan":           "A treatment plan for the diagnosed condition",
		"follow_up_recommendation": "When and how the patient should follow up with a doctor",
	}
	props := make(map[string]jsonschema.Definition, len(fields))
	for name, desc := range fields {
		props[name] = jsonschema.Definition{Type: jsonschema.String, Description: desc}
	}
	fn := openai.FunctionDefinition{
		Name:        reportFunction,
		Description: "Get a structured diagnosis report for the patient",
		Parameters: jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: props,
		},
	}

	args, err := c.call(ctx, reportPrompt(symptoms, history), fn)
	if err != nil {
		return nil, err
	}
	var report pkg.Report
	if err := json.Unmarshal([]byte(args), &report); err != nil {
		return nil, fmt.Errorf("%w: decode %s arguments: %v", ErrOracleContract, reportFunction, err)
	}
	return &report, nil
}

// call performs one bounded chat completion and returns the raw function
// arguments after checking the declared function name.
func (c *OpenAIClient) call(ctx context.Context, prompt string, fn openai.FunctionDefinition) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Functions:    []openai.FunctionDefinition{fn},
		FunctionCall: "auto",
		Temperature:  0.2,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrOracleTimeout, fn.Name)
		}
		return "", fmt.Errorf("%w: %v", ErrOracleContract, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrOracleContract)
	}
	call := resp.Choices[0].Message.FunctionCall
	if call == nil || call.Name != fn.Name {
		return "", fmt.Errorf("%w: expected function call %s", ErrOracleContract, fn.Name)
	}
	return call.Arguments, nil
}
