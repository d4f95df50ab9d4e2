package posts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var _ Repository = (*postgresRepository)(nil)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const postColumns = `id, user_id, status, mux_upload_id, mux_asset_id, mux_playback_id, caption, duration_sec, created_at`

func scanPost(row interface{ Scan(...any) error }) (*Post, error) {
	var p Post
	var assetID, playbackID, caption sql.NullString
	var duration sql.NullInt64
	err := row.Scan(&p.ID, &p.UserID, &p.Status, &p.MuxUploadID, &assetID, &playbackID, &caption, &duration, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if assetID.Valid {
		p.MuxAssetID = &assetID.String
	}
	if playbackID.Valid {
		p.MuxPlaybackID = &playbackID.String
	}
	if caption.Valid {
		p.Caption = &caption.String
	}
	if duration.Valid {
		d := int(duration.Int64)
		p.DurationSec = &d
	}
	return &p, nil
}

func (r *postgresRepository) Create(ctx context.Context, userID uuid.UUID, muxUploadID string) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, user_id, status, mux_upload_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+postColumns,
		uuid.New(), userID, Uploading, muxUploadID)
	return scanPost(row)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return post, err
}

func (r *postgresRepository) GetWithAuthor(ctx context.Context, id uuid.UUID) (*FeedItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.user_id, p.status, p.mux_upload_id, p.mux_asset_id, p.mux_playback_id,
		       p.caption, p.duration_sec, p.created_at, u.username, u.avatar_url
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1`, id)
	item, err := scanFeedItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

func (r *postgresRepository) CountByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&n)
	return n, err
}

func (r *postgresRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, caption *string, durationSec *int) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE posts
		SET caption = COALESCE($2, caption), duration_sec = COALESCE($3, duration_sec)
		WHERE id = $1
		RETURNING `+postColumns,
		id, caption, durationSec)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return post, err
}

func (r *postgresRepository) ListUploading(ctx context.Context) ([]*Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = $1 AND mux_upload_id IS NOT NULL AND mux_upload_id <> ''`,
		Uploading)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func (r *postgresRepository) FindByUploadID(ctx context.Context, muxUploadID string) ([]*Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE mux_upload_id = $1`, muxUploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

func (r *postgresRepository) MarkReadyByUploadID(ctx context.Context, muxUploadID, muxAssetID, muxPlaybackID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE posts
		SET mux_asset_id = $2, mux_playback_id = $3, status = $4
		WHERE mux_upload_id = $1`,
		muxUploadID, muxAssetID, muxPlaybackID, Ready)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *postgresRepository) ListReadyPage(ctx context.Context, limit int, cursor *uuid.UUID) ([]*FeedItem, error) {
	var cursorID any
	if cursor != nil {
		cursorID = *cursor
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.status, p.mux_upload_id, p.mux_asset_id, p.mux_playback_id,
		       p.caption, p.duration_sec, p.created_at, u.username, u.avatar_url
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.status = $1 AND p.mux_playback_id IS NOT NULL
		  AND ($3::uuid IS NULL OR (p.created_at, p.id) < (SELECT c.created_at, c.id FROM posts c WHERE c.id = $3))
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2`,
		Ready, limit, cursorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*FeedItem
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanFeedItem(row interface{ Scan(...any) error }) (*FeedItem, error) {
	var item FeedItem
	var assetID, playbackID, caption, avatarURL sql.NullString
	var duration sql.NullInt64
	err := row.Scan(&item.ID, &item.UserID, &item.Status, &item.MuxUploadID, &assetID, &playbackID,
		&caption, &duration, &item.CreatedAt, &item.Author.Username, &avatarURL)
	if err != nil {
		return nil, err
	}
	if assetID.Valid {
		item.MuxAssetID = &assetID.String
	}
	if playbackID.Valid {
		item.MuxPlaybackID = &playbackID.String
	}
	if caption.Valid {
		item.Caption = &caption.String
	}
	if duration.Valid {
		d := int(duration.Int64)
		item.DurationSec = &d
	}
	if avatarURL.Valid {
		item.Author.AvatarURL = &avatarURL.String
	}
	item.Author.ID = item.UserID
	return &item, nil
}

func collectPosts(rows *sql.Rows) ([]*Post, error) {
	var out []*Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, post)
	}
	return out, rows.Err()
}
