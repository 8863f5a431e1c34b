package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/plantcare/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
// テーブル名は歴史的経緯によりcommentary。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

const commentColumns = `id, plant_id, user_id, comment, created_at, updated_at`

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO commentary (`+commentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.PlantID, comment.UserID, comment.Comment,
		comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	comment := &model.Comment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM commentary WHERE id = $1`,
		id,
	).Scan(&comment.ID, &comment.PlantID, &comment.UserID, &comment.Comment,
		&comment.CreatedAt, &comment.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return comment, nil
}

// ListByPlant は植物のコメント一覧を作成日時の昇順で返す。
func (r *PostgresCommentRepo) ListByPlant(ctx context.Context, plantID string) ([]*model.Comment, error) {
	return r.list(ctx,
		`SELECT `+commentColumns+` FROM commentary WHERE plant_id = $1 ORDER BY created_at`,
		plantID)
}

// ListByUser はユーザーが投稿したコメント一覧を作成日時の昇順で返す。
func (r *PostgresCommentRepo) ListByUser(ctx context.Context, userID string) ([]*model.Comment, error) {
	return r.list(ctx,
		`SELECT `+commentColumns+` FROM commentary WHERE user_id = $1 ORDER BY created_at`,
		userID)
}

// UpdateText はコメント本文を更新する。
func (r *PostgresCommentRepo) UpdateText(ctx context.Context, id, text string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE commentary SET comment = $2, updated_at = now() WHERE id = $1`,
		id, text,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewCommentNotFoundError()
	}
	return nil
}

// DeleteByID は指定IDのコメントを削除する。
func (r *PostgresCommentRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM commentary WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewCommentNotFoundError()
	}
	return nil
}

func (r *PostgresCommentRepo) list(ctx context.Context, query string, args ...any) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		comment := &model.Comment{}
		if err := rows.Scan(&comment.ID, &comment.PlantID, &comment.UserID,
			&comment.Comment, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
