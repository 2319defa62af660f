package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRepository handles run history operations.
type RunRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a run with its tracks. A nil run ID is replaced with a new
// UUID; track RunID and Position fields are filled in from the run and the
// slice order.
func (r *RunRepository) Create(ctx context.Context, run *Run, tracks []RunTrack) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	runQuery := `
		INSERT INTO runs (id, kind, started_at, track_count, lyrics_count, overall_mood, playlist_id)
		VALUES ($1, $2, NOW(), $3, $4, $5, $6)
		RETURNING started_at
	`
	err = tx.QueryRow(ctx, runQuery,
		run.ID,
		run.Kind,
		run.TrackCount,
		run.LyricsCount,
		run.OverallMood,
		run.PlaylistID,
	).Scan(&run.StartedAt)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	if len(tracks) > 0 {
		cols := trackColumns(run.ID, tracks)
		tracksQuery := `
			INSERT INTO run_tracks (run_id, position, track_name, artist_name, clean_lyrics, error, emotion)
			SELECT $1::uuid, * FROM unnest($2::int[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[])
		`
		_, err = tx.Exec(ctx, tracksQuery,
			run.ID,
			cols.positions,
			cols.names,
			cols.artists,
			cols.lyrics,
			cols.errors,
			cols.emotions,
		)
		if err != nil {
			return fmt.Errorf("inserting run tracks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// runTrackColumns is a batch of run tracks laid out column by column for unnest.
type runTrackColumns struct {
	positions []int
	names     []string
	artists   []string
	lyrics    []string
	errors    []string
	emotions  []*string
}

func trackColumns(runID uuid.UUID, tracks []RunTrack) runTrackColumns {
	cols := runTrackColumns{
		positions: make([]int, len(tracks)),
		names:     make([]string, len(tracks)),
		artists:   make([]string, len(tracks)),
		lyrics:    make([]string, len(tracks)),
		errors:    make([]string, len(tracks)),
		emotions:  make([]*string, len(tracks)),
	}
	for i := range tracks {
		t := &tracks[i]
		t.RunID = runID
		t.Position = i
		cols.positions[i] = i
		cols.names[i] = t.TrackName
		cols.artists[i] = t.ArtistName
		cols.lyrics[i] = t.CleanLyrics
		cols.errors[i] = t.Error
		cols.emotions[i] = t.Emotion
	}
	return cols
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, kind, started_at, track_count, lyrics_count, overall_mood, playlist_id
		FROM runs
		WHERE id = $1
	`
	var run Run
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.Kind,
		&run.StartedAt,
		&run.TrackCount,
		&run.LyricsCount,
		&run.OverallMood,
		&run.PlaylistID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &run, nil
}

// Recent returns the latest runs, newest first.
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, kind, started_at, track_count, lyrics_count, overall_mood, playlist_id
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID,
			&run.Kind,
			&run.StartedAt,
			&run.TrackCount,
			&run.LyricsCount,
			&run.OverallMood,
			&run.PlaylistID,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Tracks returns a run's tracks in position order.
func (r *RunRepository) Tracks(ctx context.Context, runID uuid.UUID) ([]RunTrack, error) {
	query := `
		SELECT run_id, position, track_name, artist_name, clean_lyrics, error, emotion
		FROM run_tracks
		WHERE run_id = $1
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run tracks: %w", err)
	}
	defer rows.Close()

	var tracks []RunTrack
	for rows.Next() {
		var t RunTrack
		if err := rows.Scan(
			&t.RunID,
			&t.Position,
			&t.TrackName,
			&t.ArtistName,
			&t.CleanLyrics,
			&t.Error,
			&t.Emotion,
		); err != nil {
			return nil, fmt.Errorf("scanning run track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run tracks: %w", err)
	}
	return tracks, nil
}
