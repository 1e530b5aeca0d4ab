/*
Package agents turns user health data into LLM-generated plans and insights.

Every orchestrator follows the same path: build a prompt, make one provider
call, validate the parsed JSON against the agent schema and, when any step
fails, substitute a deterministic offline fallback. Callers therefore always
receive a well-formed payload for the agent they asked.
*/
package agents

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vitastate/internal/compressor"
	"vitastate/internal/llm"
	"vitastate/internal/store"
)

// Service holds the collaborators shared by all agents.
type Service struct {
	llm        llm.Sender
	store      store.Store
	compressor *compressor.Service

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

type Option func(*Service)

// WithRand sets the source used for fallback sampling and synthetic sleep data.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// WithClock overrides time.Now for record dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(sender llm.Sender, st store.Store, comp *compressor.Service, opts ...Option) *Service {
	s := &Service{
		llm:        sender,
		store:      st,
		compressor: comp,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		now:        time.Now,
	}
	if s.compressor == nil {
		s.compressor = compressor.New(nil)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the storage port for record handlers.
func (s *Service) Store() store.Store {
	return s.store
}

func (s *Service) withRand(fn func(r *rand.Rand)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	fn(s.rng)
}

func (s *Service) today() string {
	return s.now().Format(time.DateOnly)
}

// ask makes the single provider call for an agent. ok is false when the
// caller must fall back.
func (s *Service) ask(ctx context.Context, agent string, p Prompt) (any, bool) {
	res := s.llm.Send(ctx, p.System, p.User, llm.DefaultTemperature)
	if !res.OK() {
		s.logFallback(ctx, agent, res.Reason, res.Err)
		return nil, false
	}
	return res.Value, true
}

func (s *Service) logFallback(ctx context.Context, agent string, reason llm.FailureReason, err error) {
	loggerFrom(ctx).Warn().
		Str("agent", agent).
		Str("reason", string(reason)).
		Err(err).
		Msg("Using fallback response")
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
