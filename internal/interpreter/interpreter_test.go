package interpreter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/keyring"
)

var now = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func respond(w http.ResponseWriter, text string) {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// sentRequest is the subset of a generateContent body the tests inspect.
type sentRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType"`
		ResponseSchema   struct {
			Type  string `json:"type"`
			Items struct {
				Required []string `json:"required"`
			} `json:"items"`
		} `json:"responseSchema"`
	} `json:"generationConfig"`
}

type fakeGemini struct {
	mu    sync.Mutex
	keys  []string
	paths []string
	body  sentRequest
}

func (f *fakeGemini) server(t *testing.T, good string, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		key := r.Header.Get("x-goog-api-key")
		f.keys = append(f.keys, key)
		f.paths = append(f.paths, r.URL.Path)
		if key != good {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&f.body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		respond(w, text)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInterpretParsesCandidates(t *testing.T) {
	fake := &fakeGemini{}
	srv := fake.server(t, "k1", `[{"title":"Gym","startTime":"2025-03-10T17:00:00Z","endTime":"2025-03-10T18:00:00Z"}]`)

	c := New([]string{"k1"}, WithBaseURL(srv.URL+"/"), WithModel("test-model"))
	got, err := c.Interpret(context.Background(), "gym at 5pm", now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gym", got[0].Title)
	assert.True(t, got[0].StartTime.Equal(time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)))
	assert.True(t, got[0].EndTime.Equal(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))

	assert.Equal(t, []string{"/v1beta/models/test-model:generateContent"}, fake.paths)
	assert.Equal(t, "application/json", fake.body.GenerationConfig.ResponseMimeType)
	assert.Equal(t, "ARRAY", fake.body.GenerationConfig.ResponseSchema.Type)
	assert.Equal(t, []string{"title", "startTime", "endTime"}, fake.body.GenerationConfig.ResponseSchema.Items.Required)
	require.Len(t, fake.body.Contents, 1)
	assert.Contains(t, fake.body.Contents[0].Parts[0].Text, "gym at 5pm")
	assert.Contains(t, fake.body.Contents[0].Parts[0].Text, "2025-03-10T08:00:00Z")
}

func TestInterpretRotatesKeys(t *testing.T) {
	fake := &fakeGemini{}
	srv := fake.server(t, "k3", `[{"title":"Read","startTime":"2025-03-10T20:00:00Z","endTime":"2025-03-10T21:00:00Z"}]`)

	c := New([]string{"k1", "k2", "k3"}, WithBaseURL(srv.URL))
	got, err := c.Interpret(context.Background(), "read tonight", now)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []string{"k1", "k2", "k3"}, fake.keys)
}

func TestInterpretAllKeysFail(t *testing.T) {
	fake := &fakeGemini{}
	srv := fake.server(t, "none", "[]")

	c := New([]string{"k1", "k2"}, WithBaseURL(srv.URL))
	_, err := c.Interpret(context.Background(), "anything", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 API keys failed")
	assert.Contains(t, err.Error(), "429")
}

func TestInterpretNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New([]string{"k1"}, WithBaseURL(srv.URL)).Interpret(context.Background(), "x", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestInterpretWithoutKeys(t *testing.T) {
	_, err := New(nil).Interpret(context.Background(), "x", now)
	assert.ErrorIs(t, err, ErrNoAPIKeys)
}

func TestInterpretEmptyText(t *testing.T) {
	_, err := New([]string{"k"}).Interpret(context.Background(), "   ", now)
	assert.ErrorIs(t, err, errors.ErrNoCandidates)
}

func TestParseCandidatesFiltersUntrustedOutput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "drops missing fields and bad instants",
			raw: `[
				{"title":"ok","startTime":"2025-03-10T09:00:00Z","endTime":"2025-03-10T10:00:00Z"},
				{"title":"","startTime":"2025-03-10T09:00:00Z","endTime":"2025-03-10T10:00:00Z"},
				{"title":"no end","startTime":"2025-03-10T09:00:00Z"},
				{"title":"bad start","startTime":"tomorrow","endTime":"2025-03-10T10:00:00Z"}
			]`,
			want: []string{"ok"},
		},
		{
			name: "keeps inverted ranges for repair",
			raw:  `[{"title":"inverted","startTime":"2025-03-10T10:00:00Z","endTime":"2025-03-10T09:00:00Z"}]`,
			want: []string{"inverted"},
		},
		{name: "empty array", raw: `[]`, wantErr: true},
		{name: "not json", raw: `sorry, I can't help`, wantErr: true},
		{name: "all invalid", raw: `[{"title":"x"}]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCandidates(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrNoCandidates)
				return
			}
			require.NoError(t, err)
			var titles []string
			for _, c := range got {
				titles = append(titles, c.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestEnvKeys(t *testing.T) {
	env := map[string]string{
		constants.APIKeyEnvVar:        "a",
		constants.APIKeyEnvVar + "_2": "b",
		constants.APIKeyEnvVar + "_3": "c",
		constants.APIKeyEnvVar + "_5": "skipped",
	}
	got := envKeys(func(k string) string { return env[k] })
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestLoadKeysPrefersKeyring(t *testing.T) {
	gokeyring.MockInit()
	require.NoError(t, keyring.Set(keyring.APIKey, "from-keyring"))
	t.Setenv(constants.APIKeyEnvVar, "from-env")

	keys := LoadKeys()
	require.GreaterOrEqual(t, len(keys), 2)
	assert.Equal(t, "from-keyring", keys[0])
	assert.Equal(t, "from-env", keys[1])
}

func TestPromptMentionsLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	prompt := New(nil, WithLocation(loc)).prompt("meeting", now)
	assert.True(t, strings.Contains(prompt, "WIB"))
	assert.Contains(t, prompt, "2025-03-10 15:00")
}
