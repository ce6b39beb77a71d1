package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMClient_Complete(t *testing.T) {
	var received struct {
		Model          string        `json:"model"`
		Messages       []ChatMessage `json:"messages"`
		MaxTokens      int           `json:"max_tokens"`
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Visit Hampi"}}]}`)
	}))
	defer server.Close()

	client := NewLLMClient(LLMOptions{BaseURL: server.URL + "/v1/", APIKey: "sk-test", Model: "test-model"})
	reply, err := client.Complete(context.Background(), CompletionRequest{
		Messages:   []ChatMessage{{Role: "user", Content: "Where should I go?"}},
		MaxTokens:  100,
		JSONOutput: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Visit Hampi", reply)
	assert.Equal(t, "test-model", received.Model)
	assert.Equal(t, 100, received.MaxTokens)
	assert.Equal(t, []ChatMessage{{Role: "user", Content: "Where should I go?"}}, received.Messages)
	require.NotNil(t, received.ResponseFormat)
	assert.Equal(t, "json_object", received.ResponseFormat.Type)
}

func TestLLMClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream failure", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"bad body", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewLLMClient(LLMOptions{BaseURL: server.URL})
			_, err := client.Complete(context.Background(), CompletionRequest{
				Messages: []ChatMessage{{Role: "user", Content: "hi"}},
			})
			assert.Error(t, err)
		})
	}
}

func TestLLMClient_Defaults(t *testing.T) {
	client := NewLLMClient(LLMOptions{})
	assert.Equal(t, defaultLLMBaseURL, client.baseURL)
	assert.Equal(t, defaultLLMModel, client.model)
	assert.Equal(t, defaultUpstreamTimeout, client.timeout)
}

func TestDoJSON_ErrorSnippetIsBounded(t *testing.T) {
	big := make([]byte, 4*maxErrorBody)
	for i := range big {
		big[i] = 'x'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write(big)
	}))
	defer server.Close()

	var out map[string]interface{}
	err := doJSON(context.Background(), newHTTPClient(time.Second), http.MethodGet, server.URL, nil, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Less(t, len(err.Error()), 2*maxErrorBody)
}

func TestWeatherService_GetWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "owm-key", query.Get("appid"))
		assert.Equal(t, "metric", query.Get("units"))

		switch r.URL.Path {
		case "/weather":
			io.WriteString(w, `{"name":"`+query.Get("q")+query.Get("lat")+`","main":{"temp":31.5}}`)
		case "/forecast":
			io.WriteString(w, `{"cnt":40}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	svc := NewWeatherService(WeatherOptions{BaseURL: server.URL, APIKey: "owm-key"})

	report, err := svc.GetWeather(context.Background(), "Mumbai", "", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Mumbai,IN","main":{"temp":31.5}}`, string(report.Current))
	assert.JSONEq(t, `{"cnt":40}`, string(report.Forecast))

	report, err = svc.GetWeather(context.Background(), "Mumbai", "19.07", "72.87")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"19.07","main":{"temp":31.5}}`, string(report.Current))
}

func TestWeatherService_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"cod":"404","message":"city not found"}`)
	}))
	defer server.Close()

	svc := NewWeatherService(WeatherOptions{BaseURL: server.URL})

	_, err := svc.GetWeather(context.Background(), "", "19.07", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetWeather(context.Background(), "Atlantis", "", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "city not found")
}

func TestAssistantService_Chat(t *testing.T) {
	llm := &fakeCompleter{reply: "Try Coorg in monsoon"}
	svc := NewAssistantService(llm)

	reply, err := svc.Chat(context.Background(), "Weekend trip from Bangalore?", "")
	require.NoError(t, err)
	assert.Equal(t, "Try Coorg in monsoon", reply)
	require.Len(t, llm.requests, 1)
	assert.Contains(t, llm.requests[0].Messages[0].Content, "Preferred language: en")
	assert.Equal(t, "Weekend trip from Bangalore?", llm.requests[0].Messages[1].Content)

	_, err = svc.Chat(context.Background(), "   ", "en")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewAssistantService(nil).Chat(context.Background(), "hello", "en")
	assert.Error(t, err)

	_, err = NewAssistantService(&fakeCompleter{err: assert.AnError}).Chat(context.Background(), "hello", "hi")
	assert.ErrorIs(t, err, assert.AnError)
}
