// internal/audio/resolver.go
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/lis531/bargebo-guesser/internal/models"
)

// Resolver turns a track into playable audio bytes. Resolution may be slow
// (blob fetch over the network); callers must not hold game state locks
// while waiting on it.
type Resolver interface {
	Resolve(ctx context.Context, track models.Track) ([]byte, error)
}

// ErrUnavailable is returned when the audio for a track cannot be produced
// within the resolver's timeout.
var ErrUnavailable = errors.New("audio: unavailable")

// StoreResolver fetches clips from the audio blob store and caches them in
// Redis so repeated rounds on popular tracks skip the fetch.
type StoreResolver struct {
	baseURL  string
	client   *http.Client
	rdb      *redis.Client
	cacheTTL time.Duration
	timeout  time.Duration
	logger   *log.Logger
}

func NewStoreResolver(baseURL string, rdb *redis.Client, cacheTTL, timeout time.Duration, logger *log.Logger) *StoreResolver {
	return &StoreResolver{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		rdb:      rdb,
		cacheTTL: cacheTTL,
		timeout:  timeout,
		logger:   logger,
	}
}

func cacheKey(ref string) string {
	return "audio:" + ref
}

// Resolve returns the clip bytes for the track, from cache when possible.
// The whole operation is bounded by the resolver's timeout so a slow blob
// store fails a round start cleanly instead of stalling it.
func (r *StoreResolver) Resolve(ctx context.Context, track models.Track) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.rdb != nil {
		data, err := r.rdb.Get(ctx, cacheKey(track.AudioRef)).Bytes()
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, redis.Nil) {
			r.logger.Warnf("audio cache read failed for %q: %v", track.AudioRef, err)
		}
	}

	data, err := r.fetch(ctx, track.AudioRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if r.rdb != nil {
		if err := r.rdb.Set(ctx, cacheKey(track.AudioRef), data, r.cacheTTL).Err(); err != nil {
			r.logger.Warnf("audio cache write failed for %q: %v", track.AudioRef, err)
		}
	}
	return data, nil
}

func (r *StoreResolver) fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob store returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
