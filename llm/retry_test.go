package llm

import (
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func isPermanent(err error) bool {
	var pe *backoff.PermanentError
	return errors.As(err, &pe)
}

func TestClassifyGeminiErr(t *testing.T) {
	assert.True(t, isPermanent(classifyGeminiErr(&googleapi.Error{Code: 400})))
	assert.True(t, isPermanent(classifyGeminiErr(&googleapi.Error{Code: 401})))
	assert.True(t, isPermanent(classifyGeminiErr(&googleapi.Error{Code: 404})))

	assert.False(t, isPermanent(classifyGeminiErr(&googleapi.Error{Code: 429})))
	assert.False(t, isPermanent(classifyGeminiErr(&googleapi.Error{Code: 500})))
	assert.False(t, isPermanent(classifyGeminiErr(&googleapi.Error{Code: 503})))
	assert.False(t, isPermanent(classifyGeminiErr(errors.New("dial tcp: connection refused"))))
}

func TestClassifyOpenAIErr(t *testing.T) {
	assert.True(t, isPermanent(classifyOpenAIErr(&openai.APIError{HTTPStatusCode: 400})))
	assert.True(t, isPermanent(classifyOpenAIErr(&openai.APIError{HTTPStatusCode: 401})))

	assert.False(t, isPermanent(classifyOpenAIErr(&openai.APIError{HTTPStatusCode: 429})))
	assert.False(t, isPermanent(classifyOpenAIErr(&openai.APIError{HTTPStatusCode: 500})))
	assert.False(t, isPermanent(classifyOpenAIErr(errors.New("dial tcp: connection refused"))))
}
