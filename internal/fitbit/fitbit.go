/*
Package fitbit reads daily activity from the Fitbit Web API.
*/
package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// --- Fitbit API Configuration ---
const (
	APIBaseURL     = "https://api.fitbit.com"
	MockToken      = "mock_fitbit_token_12345"
	requestTimeout = 10 * time.Second
	todayPath      = "/1/user/-/activities/date/today.json"
)

// Scopes requested during login.
var Scopes = []string{"activity", "profile"}

// ActivitySummary is the daily activity shown on the dashboard.
type ActivitySummary struct {
	Steps         int    `json:"steps"`
	Calories      int    `json:"calories"`
	ActiveMinutes int    `json:"active_minutes"`
	Summary       string `json:"summary,omitempty"`
	Error         string `json:"error,omitempty"`
}

// MockActivity is returned for demo sessions without a real token.
func MockActivity() ActivitySummary {
	return ActivitySummary{
		Steps:         8500,
		Calories:      2100,
		ActiveMinutes: 45,
		Summary:       "Step goal functionality active.",
	}
}

// SyncFailed is returned when the Fitbit API could not be read.
func SyncFailed() ActivitySummary {
	return ActivitySummary{Error: "Sync failed"}
}

// IsMockToken reports whether a token should be served mock data.
func IsMockToken(token string) bool {
	return token == "" || strings.Contains(token, "mock")
}

// BearerToken strips an optional "Bearer " prefix from an Authorization header.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

type activityResponse struct {
	Summary struct {
		Steps               int `json:"steps"`
		CaloriesOut         int `json:"caloriesOut"`
		FairlyActiveMinutes int `json:"fairlyActiveMinutes"`
		VeryActiveMinutes   int `json:"veryActiveMinutes"`
	} `json:"summary"`
}

// Client reads activity data on behalf of a user access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// TodayActivity fetches today's activity summary.
func (c *Client) TodayActivity(ctx context.Context, accessToken string) (ActivitySummary, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+todayPath, nil)
	if err != nil {
		return ActivitySummary{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return ActivitySummary{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ActivitySummary{}, fmt.Errorf("fitbit API returned non-200 status: %s", resp.Status)
	}

	var body activityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ActivitySummary{}, fmt.Errorf("failed to decode activity: %w", err)
	}

	return ActivitySummary{
		Steps:         body.Summary.Steps,
		Calories:      body.Summary.CaloriesOut,
		ActiveMinutes: body.Summary.FairlyActiveMinutes + body.Summary.VeryActiveMinutes,
		Summary:       "Data synced from Fitbit.",
	}, nil
}
