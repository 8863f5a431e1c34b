// Package plant は植物の登録・共有・ケア依頼のドメインロジックを提供する。
package plant

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/plantcare/internal/model"
	"github.com/hitoshi/plantcare/internal/repository"
)

// Service は植物管理のサービス層。
type Service struct {
	plantRepo repository.PlantRepository
}

// NewService はServiceを生成する。
func NewService(plantRepo repository.PlantRepository) *Service {
	return &Service{plantRepo: plantRepo}
}

// CreateInput は植物登録の入力。
type CreateInput struct {
	Name             string
	Location         string
	CareInstructions string
	PhotoURL         string
}

// Create は新しい植物を登録する。オーナーは呼び出し元ユーザーに確定し、
// 以後変更されない。
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*model.Plant, error) {
	if input.Name == "" {
		return nil, model.NewInvalidRequestError("nameは必須です")
	}
	if input.Location == "" {
		return nil, model.NewInvalidRequestError("locationは必須です")
	}

	now := time.Now()
	plant := &model.Plant{
		ID:               uuid.New().String(),
		Name:             input.Name,
		Location:         input.Location,
		CareInstructions: input.CareInstructions,
		PhotoURL:         input.PhotoURL,
		OwnerID:          ownerID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.plantRepo.Create(ctx, plant); err != nil {
		return nil, err
	}

	slog.Info("plant created",
		slog.String("plant_id", plant.ID),
		slog.String("owner_id", ownerID),
	)

	return plant, nil
}

// UpdateInput は植物更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Name             *string
	Location         *string
	CareInstructions *string
	PhotoURL         *string
}

// Update は植物情報を更新する。
//
// 更新対象は所有権フィルタ付きで取得するため、植物が存在しない場合と
// 呼び出し元の所有でない場合はどちらも同じPLANT_NOT_FOUNDとなる。
// 他人の植物の存在を確認する手段を与えない。
func (s *Service) Update(ctx context.Context, callerID, plantID string, input UpdateInput) (*model.Plant, error) {
	plant, err := s.plantRepo.FindByIDAndOwner(ctx, plantID, callerID)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, model.NewPlantNotFoundError()
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, model.NewInvalidRequestError("nameは空にできません")
		}
		plant.Name = *input.Name
	}
	if input.Location != nil {
		plant.Location = *input.Location
	}
	if input.CareInstructions != nil {
		plant.CareInstructions = *input.CareInstructions
	}
	if input.PhotoURL != nil {
		plant.PhotoURL = *input.PhotoURL
	}

	plant.UpdatedAt = time.Now()

	if err := s.plantRepo.Update(ctx, plant); err != nil {
		return nil, err
	}

	slog.Info("plant updated", slog.String("plant_id", plant.ID))
	return plant, nil
}

// Delete は植物を削除する。削除は所有権フィルタ付きのDELETEで行い、
// 対象が存在しない場合と所有者が異なる場合はどちらもPLANT_NOT_FOUNDを返す。
func (s *Service) Delete(ctx context.Context, callerID, plantID string) error {
	deleted, err := s.plantRepo.DeleteByIDAndOwner(ctx, plantID, callerID)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewPlantNotFoundError()
	}

	slog.Info("plant deleted", slog.String("plant_id", plantID))
	return nil
}

// Get は指定IDの植物を取得する。閲覧は所有者に限定しない。
func (s *Service) Get(ctx context.Context, plantID string) (*model.Plant, error) {
	plant, err := s.plantRepo.FindByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, model.NewPlantNotFoundError()
	}
	return plant, nil
}

// ListMine は呼び出し元ユーザーが所有する植物の一覧を返す。
func (s *Service) ListMine(ctx context.Context, callerID string) ([]*model.Plant, error) {
	return s.plantRepo.ListByOwner(ctx, callerID)
}

// ListOthers は呼び出し元以外のユーザーが所有する植物の一覧を返す。
func (s *Service) ListOthers(ctx context.Context, callerID string) ([]*model.Plant, error) {
	return s.plantRepo.ListExcludingOwner(ctx, callerID)
}

// ListCareRequests はケア中（担当者設定済み）かつ呼び出し元以外の
// 植物一覧を返す。
func (s *Service) ListCareRequests(ctx context.Context, callerID string) ([]*model.Plant, error) {
	return s.plantRepo.ListInCareExcludingOwner(ctx, callerID)
}

// StartCare は植物のケア担当を呼び出し元ユーザーに設定する。
//
// 既に別のユーザーが担当中でも上書きされる。担当の割り当てに
// オーナーの承認フローは存在しない。
func (s *Service) StartCare(ctx context.Context, callerID, plantID string) (*model.Plant, error) {
	plant, err := s.plantRepo.FindByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, model.NewPlantNotFoundError()
	}

	if err := s.plantRepo.UpdateCaretaker(ctx, plantID, callerID); err != nil {
		return nil, err
	}
	plant.CaretakerID = callerID

	slog.Info("care started",
		slog.String("plant_id", plantID),
		slog.String("caretaker_id", callerID),
	)

	return plant, nil
}

// EndCare は植物のケア担当を解除する。
// 解除できるのは現在の担当者本人のみで、それ以外はNOT_AUTHORIZEDを返す。
func (s *Service) EndCare(ctx context.Context, callerID, plantID string) (*model.Plant, error) {
	plant, err := s.plantRepo.FindByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, model.NewPlantNotFoundError()
	}

	if plant.CaretakerID != callerID {
		slog.Warn("unauthorized care release attempt",
			slog.String("plant_id", plantID),
			slog.String("caller_id", callerID),
		)
		return nil, model.NewNotAuthorizedError()
	}

	if err := s.plantRepo.UpdateCaretaker(ctx, plantID, ""); err != nil {
		return nil, err
	}
	plant.CaretakerID = ""

	slog.Info("care ended",
		slog.String("plant_id", plantID),
		slog.String("caretaker_id", callerID),
	)

	return plant, nil
}
