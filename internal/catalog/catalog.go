// internal/catalog/catalog.go
package catalog

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lis531/bargebo-guesser/internal/models"
)

// Provider supplies the full track list. The catalog treats the result as a
// complete replacement, never an incremental patch.
type Provider interface {
	Refresh(ctx context.Context) ([]models.Track, error)
}

// ErrNotEnoughTracks is returned when a filter leaves fewer distinct-title
// tracks than a round needs.
var ErrNotEnoughTracks = errors.New("catalog: not enough distinct tracks")

// CandidateCount is how many choices a round presents.
const CandidateCount = 4

// Catalog is the in-memory track collection. Reads vastly outnumber writes;
// refreshes swap the whole slice under the lock.
type Catalog struct {
	mu     sync.RWMutex
	tracks []models.Track
}

func New() *Catalog {
	return &Catalog{}
}

// Replace swaps in a new track list.
func (c *Catalog) Replace(tracks []models.Track) {
	c.mu.Lock()
	c.tracks = tracks
	c.mu.Unlock()
}

// Len returns the number of loaded tracks.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// Artists returns the sorted, deduplicated artist names across the catalog.
func (c *Catalog) Artists() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(c.tracks))
	var artists []string
	for _, t := range c.tracks {
		if _, ok := seen[t.Artist]; ok {
			continue
		}
		seen[t.Artist] = struct{}{}
		artists = append(artists, t.Artist)
	}
	sort.Strings(artists)
	return artists
}

// Filtered returns the tracks whose artist is in the given set. An empty or
// nil set means no filtering.
func (c *Catalog) Filtered(artists []string) []models.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(artists) == 0 {
		out := make([]models.Track, len(c.tracks))
		copy(out, c.tracks)
		return out
	}
	set := make(map[string]struct{}, len(artists))
	for _, a := range artists {
		set[a] = struct{}{}
	}
	var out []models.Track
	for _, t := range c.tracks {
		if _, ok := set[t.Artist]; ok {
			out = append(out, t)
		}
	}
	return out
}

// DistinctTitles counts the distinct track titles in the given slice.
func DistinctTitles(tracks []models.Track) int {
	titles := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		titles[t.Title] = struct{}{}
	}
	return len(titles)
}

// PickCandidates draws CandidateCount tracks with pairwise-distinct titles
// uniformly from the pool, resampling on title collisions. Termination is
// guaranteed by the distinct-title precondition, which callers establish at
// game start and which this re-checks.
func PickCandidates(rng *rand.Rand, pool []models.Track) ([]models.Track, error) {
	if DistinctTitles(pool) < CandidateCount {
		return nil, ErrNotEnoughTracks
	}

	picked := make([]models.Track, 0, CandidateCount)
	used := make(map[string]struct{}, CandidateCount)
	for len(picked) < CandidateCount {
		t := pool[rng.Intn(len(pool))]
		if _, dup := used[t.Title]; dup {
			continue
		}
		used[t.Title] = struct{}{}
		picked = append(picked, t)
	}
	return picked, nil
}

// RunRefresh refreshes the catalog from the provider immediately and then on
// every interval tick until the context is cancelled. Provider errors keep
// the previous track list in place.
func RunRefresh(ctx context.Context, c *Catalog, p Provider, interval time.Duration, logger *log.Logger) {
	refresh := func() {
		tracks, err := p.Refresh(ctx)
		if err != nil {
			logger.Warnf("catalog refresh failed, keeping %d tracks: %v", c.Len(), err)
			return
		}
		c.Replace(tracks)
		logger.Infof("catalog refreshed: %d tracks", len(tracks))
	}

	refresh()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
