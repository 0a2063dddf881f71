// internal/catalog/postgres.go
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lis531/bargebo-guesser/internal/models"
)

// PostgresProvider reads the track table maintained by the song pipeline.
// The pipeline (chart scraping, download, transcode, blob upload) is a
// separate process; this side only ever reads.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// Refresh loads the full track list.
func (p *PostgresProvider) Refresh(ctx context.Context) ([]models.Track, error) {
	const q = `
		SELECT title, artist, COALESCE(cover_url, ''), audio_ref
		FROM tracks
		WHERE audio_ref <> ''
		ORDER BY artist, title
	`
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}

	tracks, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (models.Track, error) {
		var t models.Track
		err := r.Scan(&t.Title, &t.Artist, &t.Cover, &t.AudioRef)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan tracks: %w", err)
	}
	return tracks, nil
}
