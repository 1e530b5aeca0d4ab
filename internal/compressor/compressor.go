/*
Package compressor shrinks long history lists into a short summary before
they are placed into a prompt. A remote compression service is used when
configured; any failure falls back to a local truncation summary.
*/
package compressor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

const (
	// FallbackKeep is how many trailing items the local summary keeps.
	FallbackKeep  = 5
	cacheCapacity = 256
)

// Remote is the external compression collaborator.
type Remote interface {
	Compress(ctx context.Context, items []string, instruction string) (string, error)
}

// Service wraps an optional Remote with a result cache and a local fallback.
type Service struct {
	remote Remote
	cache  *lru.Cache[string, string]
}

// New returns a Service. remote may be nil, in which case Summarize always
// uses the local fallback.
func New(remote Remote) *Service {
	cache, _ := lru.New[string, string](cacheCapacity)
	return &Service{remote: remote, cache: cache}
}

// Enabled reports whether a remote compressor is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.remote != nil
}

// Summarize never fails: remote errors are logged and replaced by Fallback.
func (s *Service) Summarize(ctx context.Context, items []string, instruction string) string {
	if out, ok := s.remoteCompress(ctx, items, instruction); ok {
		return out
	}
	return Fallback(items)
}

// Shrink compresses a single document. Without a working remote the text is
// returned unchanged, since truncating a document would lose clinical detail.
func (s *Service) Shrink(ctx context.Context, text, instruction string) string {
	if out, ok := s.remoteCompress(ctx, []string{text}, instruction); ok {
		return out
	}
	return text
}

func (s *Service) remoteCompress(ctx context.Context, items []string, instruction string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}

	key := cacheKey(items, instruction)
	if cached, ok := s.cache.Get(key); ok {
		return cached, true
	}

	out, err := s.remote.Compress(ctx, items, instruction)
	if err != nil || strings.TrimSpace(out) == "" {
		zerolog.Ctx(ctx).Warn().Err(err).Int("items", len(items)).Msg("context compression failed")
		return "", false
	}

	s.cache.Add(key, out)
	return out, true
}

// Fallback concatenates the last FallbackKeep items behind a count prefix.
func Fallback(items []string) string {
	tail := items
	if len(tail) > FallbackKeep {
		tail = tail[len(tail)-FallbackKeep:]
	}
	return fmt.Sprintf("Recent History (%d items): %s", len(items), strings.Join(tail, "; "))
}

func cacheKey(items []string, instruction string) string {
	h := sha256.New()
	h.Write([]byte(instruction))
	for _, item := range items {
		h.Write([]byte{0})
		h.Write([]byte(item))
	}
	return hex.EncodeToString(h.Sum(nil))
}
