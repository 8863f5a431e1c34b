// Package comment は植物へのコメント投稿・編集・削除のドメインロジックを提供する。
package comment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/plantcare/internal/model"
	"github.com/hitoshi/plantcare/internal/repository"
)

// Service はコメント管理のサービス層。
//
// コメント本文はプレーンテキストとして扱い、保存前にbluemondayの
// StrictPolicyで全HTMLタグを除去する。
type Service struct {
	commentRepo repository.CommentRepository
	plantRepo   repository.PlantRepository
	policy      *bluemonday.Policy
}

// NewService はServiceを生成する。
func NewService(commentRepo repository.CommentRepository, plantRepo repository.PlantRepository) *Service {
	return &Service{
		commentRepo: commentRepo,
		plantRepo:   plantRepo,
		policy:      bluemonday.StrictPolicy(),
	}
}

// sanitize はコメント本文からHTMLタグを除去し、前後の空白を取り除く。
func (s *Service) sanitize(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// Create は植物にコメントを投稿する。コメントは誰の植物にも投稿できる。
func (s *Service) Create(ctx context.Context, userID, plantID, text string) (*model.Comment, error) {
	text = s.sanitize(text)
	if text == "" {
		return nil, model.NewInvalidRequestError("コメント本文は必須です")
	}

	plant, err := s.plantRepo.FindByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, model.NewPlantNotFoundError()
	}

	now := time.Now()
	comment := &model.Comment{
		ID:        uuid.New().String(),
		PlantID:   plantID,
		UserID:    userID,
		Comment:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	slog.Info("comment created",
		slog.String("comment_id", comment.ID),
		slog.String("plant_id", plantID),
	)

	return comment, nil
}

// ListByPlant は植物のコメント一覧を作成日時の昇順で返す。
func (s *Service) ListByPlant(ctx context.Context, plantID string) ([]*model.Comment, error) {
	plant, err := s.plantRepo.FindByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, model.NewPlantNotFoundError()
	}
	return s.commentRepo.ListByPlant(ctx, plantID)
}

// ListByUser はユーザーが投稿したコメント一覧を返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Comment, error) {
	return s.commentRepo.ListByUser(ctx, userID)
}

// Update はコメント本文を編集する。編集できるのは投稿者本人のみ。
// 植物のオーナーであっても他人のコメントは編集できない。
func (s *Service) Update(ctx context.Context, callerID, commentID, text string) (*model.Comment, error) {
	text = s.sanitize(text)
	if text == "" {
		return nil, model.NewInvalidRequestError("コメント本文は必須です")
	}

	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, model.NewCommentNotFoundError()
	}

	if comment.UserID != callerID {
		slog.Warn("unauthorized comment edit attempt",
			slog.String("comment_id", commentID),
			slog.String("caller_id", callerID),
		)
		return nil, model.NewNotAuthorizedError()
	}

	if err := s.commentRepo.UpdateText(ctx, commentID, text); err != nil {
		return nil, err
	}
	comment.Comment = text
	comment.UpdatedAt = time.Now()

	slog.Info("comment updated", slog.String("comment_id", commentID))
	return comment, nil
}

// Delete はコメントを削除する。
// 削除できるのは投稿者本人、または対象植物のオーナーのみ。
func (s *Service) Delete(ctx context.Context, callerID, commentID string) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return model.NewCommentNotFoundError()
	}

	if comment.UserID != callerID {
		plant, err := s.plantRepo.FindByID(ctx, comment.PlantID)
		if err != nil {
			return err
		}
		if plant == nil || plant.OwnerID != callerID {
			slog.Warn("unauthorized comment deletion attempt",
				slog.String("comment_id", commentID),
				slog.String("caller_id", callerID),
			)
			return model.NewNotAuthorizedError()
		}
	}

	if err := s.commentRepo.DeleteByID(ctx, commentID); err != nil {
		return err
	}

	slog.Info("comment deleted", slog.String("comment_id", commentID))
	return nil
}
