package tokenmetrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Sternrassler/tmai-client/pkg/pagination"
)

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = errors.New("question is required")

// Message is one chat turn sent to the AI agent.
type Message struct {
	User string `json:"user"`
}

// AgentResponse is the AI agent reply.
type AgentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Answer  string `json:"answer"`
}

// Chat sends a conversation to the AI agent.
func (a *API) Chat(ctx context.Context, messages []Message) (*AgentResponse, error) {
	var resp AgentResponse
	err := a.callInto(ctx, http.MethodPost, EndpointAIAgent, pagination.Params{"messages": messages}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ask agent: %w", err)
	}
	return &resp, nil
}

// Ask sends a single question and returns the answer text, which is empty
// when the agent gave none.
func (a *API) Ask(ctx context.Context, question string) (string, error) {
	if question == "" {
		return "", ErrEmptyQuestion
	}
	resp, err := a.Chat(ctx, []Message{{User: question}})
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// intoCaller is implemented by executors that decode straight into a value.
type intoCaller interface {
	CallInto(ctx context.Context, method, endpoint string, params pagination.Params, out any) error
}

// callInto decodes a response into out, going through the generic decoded
// form when the executor cannot decode directly.
func (a *API) callInto(ctx context.Context, method, endpoint string, params pagination.Params, out any) error {
	if c, ok := a.exec.(intoCaller); ok {
		return c.CallInto(ctx, method, endpoint, params, out)
	}
	raw, err := a.exec.Call(ctx, method, endpoint, params)
	if err != nil {
		return err
	}
	return remarshal(raw, out)
}
