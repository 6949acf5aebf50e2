package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	domainrepo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return domainrepo.ErrDuplicate
		}
		return errors.Wrap(err, "create user")
	}
	return nil
}

// emailでユーザーを1件取得。見つからなければ nil, nil
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find user by email")
	}

	return &u, nil
}

func (r *userGormRepository) CountCustomers(ctx context.Context, from, to *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", model.RoleUser)
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count customers")
	}
	return n, nil
}

func (r *userGormRepository) ListRecentCustomers(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("role = ?", model.RoleUser).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&users).Error; err != nil {
		return []model.User{}, errors.Wrap(err, "list recent customers")
	}
	return users, nil
}
