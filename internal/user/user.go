/*
Package user holds the HTTP handlers for the health dashboard: the agent
endpoints, the journal, workout and prescription records, taste-memory
ratings and the activity summary.
*/
package user

import (
	"vitastate/internal/agents"
	"vitastate/internal/fitbit"
	"vitastate/internal/store"
)

// Handler groups the dependencies shared by every /api route.
type Handler struct {
	agents *agents.Service
	store  store.Store
	fitbit *fitbit.Client
}

func NewHandler(a *agents.Service, f *fitbit.Client) *Handler {
	if f == nil {
		f = fitbit.NewClient("", nil)
	}
	return &Handler{agents: a, store: a.Store(), fitbit: f}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
