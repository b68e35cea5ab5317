package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/ByLCY/memecanvas/feed"
)

const schema = `
CREATE TABLE IF NOT EXISTS memes (
	id TEXT PRIMARY KEY,
	image_url TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	user_id TEXT NOT NULL,
	upvote_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS upvotes (
	id TEXT PRIMARY KEY,
	meme_id TEXT NOT NULL REFERENCES memes(id),
	user_id TEXT NOT NULL,
	UNIQUE (meme_id, user_id)
);`

// Store persists memes in a SQLite database.
type Store struct {
	db *sql.DB
}

var _ feed.Store = (*Store)(nil)

// NewStore opens (or creates) the database and its tables.
func NewStore(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer keeps the upvote transaction serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateMeme(ctx context.Context, meme *feed.Meme) error {
	log := logrus.WithFields(logrus.Fields{
		"meme_id":    meme.ID,
		"url_length": len(meme.ImageURL),
	})
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO memes (id, image_url, created_at, user_id, upvote_count) VALUES (?, ?, ?, ?, ?)",
		meme.ID, meme.ImageURL, meme.CreatedAt, meme.UserID, meme.UpvoteCount)
	if err != nil {
		log.WithError(err).Error("Failed to create meme")
		return err
	}
	log.Debug("Meme created")
	return nil
}

func (s *Store) ListMemes(ctx context.Context) ([]*feed.Meme, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, image_url, created_at, user_id, upvote_count FROM memes ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memes := []*feed.Meme{}
	for rows.Next() {
		var m feed.Meme
		if err := rows.Scan(&m.ID, &m.ImageURL, &m.CreatedAt, &m.UserID, &m.UpvoteCount); err != nil {
			return nil, err
		}
		memes = append(memes, &m)
	}
	return memes, rows.Err()
}

func (s *Store) GetMeme(ctx context.Context, id string) (*feed.Meme, error) {
	var m feed.Meme
	err := s.db.QueryRowContext(ctx,
		"SELECT id, image_url, created_at, user_id, upvote_count FROM memes WHERE id = ?", id).
		Scan(&m.ID, &m.ImageURL, &m.CreatedAt, &m.UserID, &m.UpvoteCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, feed.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) HasUpvoted(ctx context.Context, memeID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM upvotes WHERE meme_id = ? AND user_id = ?", memeID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Upvote inserts the upvote row and increments the counter in one transaction.
func (s *Store) Upvote(ctx context.Context, upvote *feed.Upvote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM memes WHERE id = ?", upvote.MemeID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return feed.ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO upvotes (id, meme_id, user_id) VALUES (?, ?, ?)",
		upvote.ID, upvote.MemeID, upvote.UserID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return feed.ErrAlreadyUpvoted
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE memes SET upvote_count = upvote_count + 1 WHERE id = ?", upvote.MemeID); err != nil {
		return err
	}
	return tx.Commit()
}
