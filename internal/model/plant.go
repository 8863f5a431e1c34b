// Package model はドメインモデルを定義する。
package model

import "time"

// Plant は登録された植物を表す。
// オーナーは作成時に確定し、以後変更されない。
// CaretakerIDが設定されている間は「ケア中」とみなす。
type Plant struct {
	ID               string
	Name             string
	Location         string
	CareInstructions string
	PhotoURL         string
	OwnerID          string

	// CaretakerID は現在ケアを担当しているユーザーのID。空文字は未ケア。
	CaretakerID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InCare はケア担当者が設定されているかどうかを返す。
func (p *Plant) InCare() bool {
	return p.CaretakerID != ""
}

// Comment は植物に対するコメントを表す。
// 編集は投稿者のみ、削除は投稿者または植物のオーナーが行える。
type Comment struct {
	ID        string
	PlantID   string
	UserID    string
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
