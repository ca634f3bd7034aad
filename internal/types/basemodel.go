package types

import (
	"context"
	"time"
)

// BaseModel carries the audit columns shared by the catalog tables (plans, setup_fees)
type BaseModel struct {
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
}

// NewBaseModel returns a published record created at now by the user in ctx
func NewBaseModel(ctx context.Context, now time.Time) BaseModel {
	now = now.UTC()
	userID := GetUserID(ctx)
	return BaseModel{
		Status:    StatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
}

func GetDefaultBaseModel(ctx context.Context) BaseModel {
	return NewBaseModel(ctx, time.Now())
}

// Touch stamps a change made at now by the user in ctx
func (b *BaseModel) Touch(ctx context.Context, now time.Time) {
	b.UpdatedAt = now.UTC()
	b.UpdatedBy = GetUserID(ctx)
}
