package fitbit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodayActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/user/-/activities/date/today.json", r.URL.Path)
		assert.Equal(t, "Bearer real-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"summary":{"steps":10234,"caloriesOut":2450,"fairlyActiveMinutes":20,"veryActiveMinutes":15}}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, srv.Client()).TodayActivity(context.Background(), "real-token")
	require.NoError(t, err)
	assert.Equal(t, ActivitySummary{
		Steps:         10234,
		Calories:      2450,
		ActiveMinutes: 35,
		Summary:       "Data synced from Fitbit.",
	}, got)
}

func TestTodayActivityNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client()).TodayActivity(context.Background(), "expired")
	assert.Error(t, err)
}

func TestTokenHelpers(t *testing.T) {
	assert.True(t, IsMockToken(""))
	assert.True(t, IsMockToken(MockToken))
	assert.False(t, IsMockToken("eyJhbGciOi"))

	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestMockActivity(t *testing.T) {
	m := MockActivity()
	assert.Equal(t, 8500, m.Steps)
	assert.Equal(t, 2100, m.Calories)
	assert.Equal(t, 45, m.ActiveMinutes)
}
