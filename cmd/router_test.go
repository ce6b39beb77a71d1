package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"travel-partner-backend/internal/config"
	"travel-partner-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T, mutate func(cfg *config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	cfg.JWT.Secret = "test-secret"
	if mutate != nil {
		mutate(cfg)
	}

	store, err := repository.NewSnapshotStore(context.Background(), repository.NewMemoryPersister())
	require.NoError(t, err)

	return &testServer{handler: newRouter(newApp(cfg, store))}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()

	s.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func field(t *testing.T, body map[string]interface{}, keys ...string) interface{} {
	t.Helper()
	var current interface{} = body
	for _, key := range keys {
		m, ok := current.(map[string]interface{})
		require.True(t, ok, "expected object at %q", key)
		current = m[key]
	}
	return current
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	status, body := srv.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body["status"])
}

func TestTravelPostFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodPost, "/api/travel-posts",
		`{"userId":"owner","userName":"Asha","destination":"Goa","startDate":"2026-05-01","endDate":"2026-05-03","maxParticipants":2}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	postID := field(t, body, "post", "id").(string)
	assert.True(t, strings.HasPrefix(postID, "post_"))
	assert.Equal(t, []interface{}{"owner"}, field(t, body, "post", "joinedUsers"))

	status, body = srv.do(t, http.MethodGet, "/api/travel-posts/"+postID, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Goa", field(t, body, "post", "destination"))

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/join-request", `{"userId":"u1","message":"Count me in"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	requestID := field(t, body, "request", "id").(string)
	assert.Equal(t, "pending", field(t, body, "request", "status"))

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/join-request", `{"userId":"u1"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already sent a join request", body["error"])

	status, body = srv.do(t, http.MethodGet, "/api/travel-posts/"+postID+"/join-requests?userId=owner", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["requests"], 1)

	status, body = srv.do(t, http.MethodGet, "/api/travel-posts/"+postID+"/join-requests?userId=u9", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["requests"])

	respondPath := "/api/travel-posts/" + postID + "/join-requests/" + requestID + "/respond"
	status, body = srv.do(t, http.MethodPost, respondPath, `{"action":"accept","userId":"u1"}`, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, body["success"])

	status, body = srv.do(t, http.MethodPost, respondPath, `{"action":"maybe","userId":"owner"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, `Invalid action. Use "accept" or "reject"`, body["error"])

	status, body = srv.do(t, http.MethodPost, respondPath, `{"action":"accept","userId":"owner"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "accepted", field(t, body, "request", "status"))
	assert.Equal(t, []interface{}{"owner", "u1"}, field(t, body, "post", "joinedUsers"))
	assert.Equal(t, float64(0), field(t, body, "post", "joinRequestCount"))

	status, body = srv.do(t, http.MethodGet, "/api/travel-posts/"+postID+"/plan?userId=u1", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"owner", "u1"}, field(t, body, "plan", "members"))

	status, _ = srv.do(t, http.MethodGet, "/api/travel-posts/"+postID+"/plan?userId=stranger", "", "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/plan", `{"userId":"u1","type":"photo","data":{}}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, `Invalid type. Use "activity", "note", or "budget"`, body["error"])

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/plan", `{"userId":"u1","type":"activity","data":{"name":"Dudhsagar falls"}}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Dudhsagar falls", field(t, body, "item", "name"))
	assert.Len(t, field(t, body, "plan", "activities"), 1)

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/join-request", `{"userId":"u2"}`, "")
	require.Equal(t, http.StatusOK, status)
	secondID := field(t, body, "request", "id").(string)
	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/join-requests/"+secondID+"/respond", `{"action":"accept","userId":"owner"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Trip has reached maximum participants", body["error"])

	status, body = srv.do(t, http.MethodGet, "/api/users/owner/profile", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), field(t, body, "profile", "tripCount"))
}

func TestTravelPosts_Validation(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodPost, "/api/travel-posts", `{"userId":"owner","destination":"Goa"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields", body["error"])

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts", `{"destination":"Goa","startDate":"a","endDate":"b"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields", body["error"])

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", body["error"])

	status, body = srv.do(t, http.MethodGet, "/api/travel-posts/post_missing", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found", body["error"])

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/post_missing/join-request", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User ID is required", body["error"])
}

func TestCreatePost_NonPositiveMaxParticipantsDefaults(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, value := range []string{"-3", "0"} {
		status, body := srv.do(t, http.MethodPost, "/api/travel-posts",
			`{"userId":"owner","destination":"Goa","startDate":"2026-05-01","endDate":"2026-05-03","maxParticipants":`+value+`}`, "")
		require.Equal(t, http.StatusOK, status, body)
		assert.Equal(t, float64(10), field(t, body, "post", "maxParticipants"))
	}
}

func TestLookingToJoinRoutesBeforePostID(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodPost, "/api/travel-posts/looking-to-join", `{"userId":"u1","tripType":"Adventure"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.True(t, strings.HasPrefix(field(t, body, "post", "id").(string), "looking_"))
	assert.Equal(t, "Any", field(t, body, "post", "destination"))

	status, body = srv.do(t, http.MethodGet, "/api/travel-posts/looking-to-join?destination=Ladakh", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["posts"], 1)

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/looking-to-join", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User ID is required", body["error"])
}

func TestTokenIdentity(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodPost, "/api/users", "", "")
	require.Equal(t, http.StatusOK, status)
	userID := field(t, body, "user", "id").(string)
	token := field(t, body, "user", "token").(string)

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts",
		`{"userId":"someone-else","destination":"Hampi","startDate":"2026-06-01","endDate":"2026-06-02"}`, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, userID, field(t, body, "post", "userId"))

	status, body = srv.do(t, http.MethodGet, "/api/travel-posts", "", "bogus")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestCreateUser_NotConfigured(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.JWT.Secret = "" })
	status, _ := srv.do(t, http.MethodPost, "/api/users", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestItinerary_BasicWithoutLLM(t *testing.T) {
	srv := newTestServer(t, nil)

	_, body := srv.do(t, http.MethodPost, "/api/travel-posts",
		`{"userId":"owner","destination":"Munnar","startDate":"2026-07-10","endDate":"2026-07-11","budget":"Budget-friendly"}`, "")
	postID := field(t, body, "post", "id").(string)

	status, _ := srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/itinerary", `{"userId":"stranger"}`, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/itinerary", `{"userId":"owner"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, field(t, body, "itinerary", "isBasic"))
	assert.Len(t, field(t, body, "itinerary", "days"), 2)
	assert.Equal(t, "₹5,000-10,000 per person", field(t, body, "itinerary", "estimatedBudget"))
}

func TestItinerary_WithLLM(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"days":[{"title":"Tea gardens","date":"2026-07-10","activities":[{"time":"09:00","name":"Kolukkumalai sunrise","description":"Jeep ride","location":"Kolukkumalai","cost":"₹2500"}]}],"tips":"Book jeeps early","estimatedBudget":"₹8,000"}`
		payload, _ := json.Marshal(map[string]interface{}{
			"choices": []interface{}{map[string]interface{}{"message": map[string]string{"role": "assistant", "content": content}}},
		})
		w.Write(payload)
	}))
	defer upstream.Close()

	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.LLM.BaseURL = upstream.URL
		cfg.LLM.APIKey = "sk-test"
	})

	_, body := srv.do(t, http.MethodPost, "/api/travel-posts",
		`{"userId":"owner","destination":"Munnar","startDate":"2026-07-10","endDate":"2026-07-11"}`, "")
	postID := field(t, body, "post", "id").(string)

	status, body := srv.do(t, http.MethodPost, "/api/travel-posts/"+postID+"/itinerary", `{"userId":"owner"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Nil(t, field(t, body, "itinerary", "isBasic"))
	assert.Equal(t, "Book jeeps early", field(t, body, "itinerary", "tips"))

	status, body = srv.do(t, http.MethodGet, "/api/travel-posts/"+postID+"/plan?userId=owner", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "owner", field(t, body, "plan", "itinerary", "generatedBy"))
}

func TestChatbot(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodPost, "/api/chatbot", `{"message":"Best time for Ladakh?"}`, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["fallbackReply"])

	status, body = srv.do(t, http.MethodPost, "/api/chatbot", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Message is required", body["error"])
}

func TestWeather(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/weather" {
			io.WriteString(w, `{"name":"Shimla","main":{"temp":12}}`)
			return
		}
		io.WriteString(w, `{"list":[]}`)
	}))
	defer upstream.Close()

	srv := newTestServer(t, func(cfg *config.Config) { cfg.Weather.BaseURL = upstream.URL })

	status, body := srv.do(t, http.MethodGet, "/api/weather/Shimla", "", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Shimla", field(t, body, "current", "name"))
	assert.NotNil(t, body["forecast"])
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/travel-posts", nil)
	rec := httptest.NewRecorder()

	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewPersister(t *testing.T) {
	ctx := context.Background()

	persister, cleanup, err := newPersister(ctx, config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, "memory", persister.Name())

	path := filepath.Join(t.TempDir(), "data.json")
	persister, cleanup, err = newPersister(ctx, config.StorageConfig{Driver: config.DriverFile, Path: path})
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, "file", persister.Name())
}

func TestRecommendations(t *testing.T) {
	slot := `{"main":{"temp":22,"humidity":60},"weather":[{"main":"Clouds"}]}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Atlantis,IN" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"cod":"404","message":"city not found"}`)
			return
		}
		io.WriteString(w, `{"list":[`+strings.TrimSuffix(strings.Repeat(slot+",", 8), ",")+`]}`)
	}))
	defer upstream.Close()

	srv := newTestServer(t, func(cfg *config.Config) { cfg.Weather.BaseURL = upstream.URL })

	status, body := srv.do(t, http.MethodPost, "/api/recommendations/analyze",
		`{"destination":"Udaipur","dates":"next month","interests":["lakes"]}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Udaipur", body["destination"])
	assert.Equal(t, float64(100), body["bestVisitScore"])
	assert.Equal(t, "Pleasant", field(t, body, "weatherForecast", "comfort"))
	assert.Equal(t, "Excellent", field(t, body, "climateTrends", "recommendation"))
	assert.Nil(t, body["crowdAnalysis"])

	status, body = srv.do(t, http.MethodPost, "/api/recommendations/analyze", `{"interests":["lakes"]}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Destination is required", body["error"])

	status, body = srv.do(t, http.MethodPost, "/api/recommendations/analyze", `{"destination":"Atlantis"}`, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to generate recommendations", body["error"])
}

func TestCrowdDensity(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodPost, "/api/crowd/density", `{"placeId":"abc","name":"Qutub Minar"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Qutub Minar", body["placeName"])
	assert.Contains(t, []interface{}{"Very Low", "Low", "Medium", "High"}, field(t, body, "currentCrowd", "level"))
	assert.Len(t, body["peakHours"], 2)
	assert.NotEmpty(t, body["analysis"])

	status, body = srv.do(t, http.MethodPost, "/api/crowd/density", `{"placeId":"abc"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Place name or location is required", body["error"])
}

func TestTouristGuides(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodGet, "/api/tourist-guides/kedarnath", "", "")
	require.Equal(t, http.StatusOK, status)
	guides := body["guides"].([]interface{})
	require.Len(t, guides, 2)
	assert.Equal(t, "Rajesh Rawat", guides[0].(map[string]interface{})["name"])

	_, body = srv.do(t, http.MethodGet, "/api/tourist-guides/hampi", "", "")
	guides = body["guides"].([]interface{})
	require.Len(t, guides, 1)
	assert.Equal(t, "guide-default1", guides[0].(map[string]interface{})["id"])
}

func TestBudgetCalculator(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodPost, "/api/budget/calculate", `{"numberOfPeople":2}`, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to calculate budget", body["error"])

	status, _ = srv.do(t, http.MethodPost, "/api/budget/calculate", `{"numberOfPeople":-1}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDraftItinerary(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, http.MethodPost, "/api/generate-itinerary",
		`{"destination":"Hampi","startDate":"2026-12-01","endDate":"2026-12-03","interests":["ruins"]}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, field(t, body, "itinerary", "isBasic"))
	assert.Len(t, field(t, body, "itinerary", "days"), 3)

	status, body = srv.do(t, http.MethodPost, "/api/generate-itinerary", `{"startDate":"2026-12-01"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Destination is required", body["error"])
}
