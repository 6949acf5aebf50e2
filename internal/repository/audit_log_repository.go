package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 対象リソースで絞る。Limitは0以下なら50件
type AuditLogFilter struct {
	ResourceType *model.AuditResourceType
	ResourceID   *string
	Limit        int
}

type AuditLogRepository interface {
	// 管理者操作を1件残す
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
