package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/plantcare/internal/model"
)

// PostgresPlantRepo はPostgreSQLを使用した植物リポジトリ。
type PostgresPlantRepo struct {
	db *sql.DB
}

// NewPostgresPlantRepo はPostgresPlantRepoを生成する。
func NewPostgresPlantRepo(db *sql.DB) *PostgresPlantRepo {
	return &PostgresPlantRepo{db: db}
}

const plantColumns = `id, name, location, care_instructions, photo_url, owner_id, caretaker_id, created_at, updated_at`

// Create は植物を作成する。
func (r *PostgresPlantRepo) Create(ctx context.Context, plant *model.Plant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plants (`+plantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		plant.ID, plant.Name, plant.Location,
		nullable(plant.CareInstructions), nullable(plant.PhotoURL),
		plant.OwnerID, nullable(plant.CaretakerID),
		plant.CreatedAt, plant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert plant: %w", err)
	}
	return nil
}

// FindByID は指定IDの植物を取得する。見つからない場合はnilを返す。
func (r *PostgresPlantRepo) FindByID(ctx context.Context, id string) (*model.Plant, error) {
	return r.findOne(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = $1`, id)
}

// FindByIDAndOwner はIDとオーナーIDで植物を取得する。
// 存在しない場合と所有者が異なる場合はどちらもnilを返す。
func (r *PostgresPlantRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Plant, error) {
	return r.findOne(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE id = $1 AND owner_id = $2`,
		id, ownerID)
}

// Update は植物情報を更新する。owner_idは変更しない（オーナーは作成時に確定）。
func (r *PostgresPlantRepo) Update(ctx context.Context, plant *model.Plant) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE plants SET
			name = $2, location = $3, care_instructions = $4,
			photo_url = $5, caretaker_id = $6, updated_at = $7
		 WHERE id = $1`,
		plant.ID, plant.Name, plant.Location,
		nullable(plant.CareInstructions), nullable(plant.PhotoURL),
		nullable(plant.CaretakerID), plant.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update plant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPlantNotFoundError()
	}
	return nil
}

// UpdateCaretaker はケア担当者を更新する。空文字で担当を解除する。
func (r *PostgresPlantRepo) UpdateCaretaker(ctx context.Context, plantID, caretakerID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE plants SET caretaker_id = $2, updated_at = now() WHERE id = $1`,
		plantID, nullable(caretakerID),
	)
	if err != nil {
		return fmt.Errorf("failed to update caretaker: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewPlantNotFoundError()
	}
	return nil
}

// DeleteByIDAndOwner はIDとオーナーIDで植物を削除する。
// 削除できた場合はtrueを返す。
func (r *PostgresPlantRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM plants WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete plant: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListByOwner はオーナーの植物一覧を返す。
func (r *PostgresPlantRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Plant, error) {
	return r.list(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE owner_id = $1 ORDER BY created_at`,
		ownerID)
}

// ListExcludingOwner は指定オーナー以外の植物一覧を返す。
func (r *PostgresPlantRepo) ListExcludingOwner(ctx context.Context, ownerID string) ([]*model.Plant, error) {
	return r.list(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE owner_id <> $1 ORDER BY created_at`,
		ownerID)
}

// ListInCareExcludingOwner はケア中かつ指定オーナー以外の植物一覧を返す。
func (r *PostgresPlantRepo) ListInCareExcludingOwner(ctx context.Context, ownerID string) ([]*model.Plant, error) {
	return r.list(ctx,
		`SELECT `+plantColumns+` FROM plants
		 WHERE caretaker_id IS NOT NULL AND owner_id <> $1 ORDER BY created_at`,
		ownerID)
}

func (r *PostgresPlantRepo) findOne(ctx context.Context, query string, args ...any) (*model.Plant, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	plant, err := scanPlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plant: %w", err)
	}
	return plant, nil
}

func (r *PostgresPlantRepo) list(ctx context.Context, query string, args ...any) ([]*model.Plant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	defer rows.Close()

	var plants []*model.Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plant: %w", err)
		}
		plants = append(plants, plant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plants: %w", err)
	}
	return plants, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (*model.Plant, error) {
	plant := &model.Plant{}
	var careInstructions, photoURL, caretakerID sql.NullString

	err := row.Scan(
		&plant.ID, &plant.Name, &plant.Location,
		&careInstructions, &photoURL,
		&plant.OwnerID, &caretakerID,
		&plant.CreatedAt, &plant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	plant.CareInstructions = careInstructions.String
	plant.PhotoURL = photoURL.String
	plant.CaretakerID = caretakerID.String
	return plant, nil
}

// compile-time interface check
var _ PlantRepository = (*PostgresPlantRepo)(nil)
