package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drinkscout/drinkscout/pkg/query"
)

func TestExtractRecommendation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "state document",
			raw:  `{"state": {"final_recommendation": "來杯烏龍奶茶"}}`,
			want: "來杯烏龍奶茶",
		},
		{
			name: "triple double quotes",
			raw:  `前言 """來杯烏龍奶茶""" 後記`,
			want: "來杯烏龍奶茶",
		},
		{
			name: "triple single quotes",
			raw:  "前言 '''來杯烏龍奶茶''' 後記",
			want: "來杯烏龍奶茶",
		},
		{
			name: "bare text",
			raw:  "  來杯烏龍奶茶\n",
			want: "來杯烏龍奶茶",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractRecommendation(tt.raw))
		})
	}
}

func TestEnsureSessionCreatesOn404(t *testing.T) {
	var gets, posts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets = append(gets, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPost:
			posts = append(posts, r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "multi")
	err := c.EnsureSession(context.Background(), "u1", "s1")
	require.NoError(t, err)

	want := "/apps/multi/users/u1/sessions/s1"
	assert.Equal(t, []string{want}, gets)
	assert.Equal(t, []string{want}, posts, "a missing session must be created")
}

func TestEnsureSessionExisting(t *testing.T) {
	posts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "multi")
	require.NoError(t, c.EnsureSession(context.Background(), "u1", "s1"))
	assert.Zero(t, posts)
}

func TestRecommendFullRound(t *testing.T) {
	var runBody runPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/run" {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&runBody))
			_ = json.NewEncoder(w).Encode([]runEvent{
				{Content: runMessage{Parts: []runPart{
					{Text: `{"state": {"final_recommendation": "來杯烏龍奶茶"}}`},
				}}},
			})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	drinks := []query.Drink{
		{Name: "烏龍奶茶", StoreName: "Store A", Description: "回甘"},
		{Name: "珍珠奶茶", StoreName: "Store B"},
		{Name: "紅茶拿鐵", StoreName: "Store C"},
		{Name: "四季春", StoreName: "Store D"},
	}

	c := NewClient(srv.Client(), srv.URL, "multi")
	rec, err := c.Recommend(context.Background(), RecommendRequest{
		UserID:      "u1",
		SessionID:   "s1",
		Preferences: []ChatMessage{{Role: "user", Content: "喜歡簡短的回答"}},
		Drinks:      drinks,
	})
	require.NoError(t, err)

	assert.Equal(t, "來杯烏龍奶茶", rec.Message)
	assert.Equal(t, drinks, rec.Drinks, "the full drink list rides along unchanged")

	require.Len(t, runBody.NewMessage.Parts, 1)
	prompt := runBody.NewMessage.Parts[0].Text
	assert.Contains(t, prompt, "喜歡簡短的回答")
	assert.Contains(t, prompt, "烏龍奶茶")
	assert.NotContains(t, prompt, "四季春", "only the top drinks enter the prompt")
	assert.Equal(t, "multi", runBody.AppName)
	assert.False(t, runBody.Streaming)
}

func TestRecommendFallsBackOnAgentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/run" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	drinks := []query.Drink{{Name: "烏龍奶茶", StoreName: "Store A"}}
	c := NewClient(srv.Client(), srv.URL, "multi")

	rec, err := c.Recommend(context.Background(), RecommendRequest{
		UserID: "u1", SessionID: "s1", Drinks: drinks,
	})
	require.NoError(t, err, "agent failure degrades to a canned message, not an error")

	assert.Equal(t, fallbackMessage, rec.Message)
	assert.Equal(t, drinks, rec.Drinks)
}

func TestRecommendMintsSessionID(t *testing.T) {
	var sessionPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/sessions/") {
			sessionPaths = append(sessionPaths, r.URL.Path)
		}
		if r.URL.Path == "/run" {
			_ = json.NewEncoder(w).Encode([]runEvent{
				{Content: runMessage{Parts: []runPart{{Text: "ok"}}}},
			})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, "multi")
	_, err := c.Recommend(context.Background(), RecommendRequest{})
	require.NoError(t, err)

	require.NotEmpty(t, sessionPaths)
	assert.NotContains(t, sessionPaths[0], "/sessions/\n")
	parts := strings.Split(sessionPaths[0], "/")
	assert.NotEmpty(t, parts[len(parts)-1], "a session id must be minted when absent")
}

func TestNewSessionIDUnique(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}
