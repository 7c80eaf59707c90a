package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/drinkscout/drinkscout/pkg/agent"
)

// newAgentServer serves the minimal agent protocol: any session probe
// succeeds and every run answers with the given recommendation text.
func newAgentServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/run" {
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
			})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRecommendWithoutAgent(t *testing.T) {
	h := NewRecommendHandler(nil, newCatalog(&fakeExecutor{}, &fakeFinder{}), 100)

	rec := httptest.NewRecorder()
	h.Recommend(rec, postJSON("/v1/recommend", `{"filter":{"longitude":121.56,"latitude":25.03}}`))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecommendRequiresLocation(t *testing.T) {
	srv := newAgentServer(t, "ok")
	defer srv.Close()

	client := agent.NewClient(srv.Client(), srv.URL, "multi")
	h := NewRecommendHandler(client, newCatalog(&fakeExecutor{}, &fakeFinder{}), 100)

	rec := httptest.NewRecorder()
	h.Recommend(rec, postJSON("/v1/recommend", `{"filter":{}}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendFullFlow(t *testing.T) {
	srv := newAgentServer(t, "來杯烏龍奶茶")
	defer srv.Close()

	exec := &fakeExecutor{results: [][]bson.M{
		{{"store_id": "s1", "platform": "ubereats", "name": "五十嵐"}},
		{{"item_id": "m1", "store_id": "s1", "platform": "ubereats", "name": "烏龍奶茶", "price": 50.0}},
	}}

	client := agent.NewClient(srv.Client(), srv.URL, "multi")
	h := NewRecommendHandler(client, newCatalog(exec, &fakeFinder{}), 100)

	rec := httptest.NewRecorder()
	h.Recommend(rec, postJSON("/v1/recommend",
		`{"user_id":"u1","preferences":[{"role":"user","content":"喜歡簡短的回答"}],"filter":{"longitude":121.56,"latitude":25.03}}`))

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var out agent.Recommendation
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "來杯烏龍奶茶", out.Message)
	require.Len(t, out.Drinks, 1)
	assert.Equal(t, "烏龍奶茶", out.Drinks[0].Name)
}

func TestRecommendSearchFailure(t *testing.T) {
	srv := newAgentServer(t, "ok")
	defer srv.Close()

	client := agent.NewClient(srv.Client(), srv.URL, "multi")
	h := NewRecommendHandler(client, newCatalog(&fakeExecutor{err: assert.AnError}, &fakeFinder{}), 100)

	rec := httptest.NewRecorder()
	h.Recommend(rec, postJSON("/v1/recommend", `{"filter":{"longitude":121.56,"latitude":25.03}}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
