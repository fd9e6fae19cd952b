package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"playlog/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return err
		}
		if isDupKey(err) {
			return fmt.Errorf("%w: user is taken", domain.ErrConflict)
		}
		return domain.NewStoreError("create user", err)
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "find user by id", "id = ?", id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "find user by username", "username = ?", username)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "find user by email", "email = ?", email)
}

// first 未找到返回 (nil, nil)
func (r *UserRepo) first(ctx context.Context, op, cond string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStoreError(op, err)
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User, columns ...string) error {
	prev := u.Version
	u.Version = prev + 1

	cols := append(append([]string{}, columns...), "version", "updated_at")
	if u.PasswordChanged() {
		cols = append(cols, "password_hash")
	}
	res := r.db.WithContext(ctx).Model(u).Select(cols).Where("version = ?", prev).Updates(u)
	if res.Error != nil {
		u.Version = prev
		if errors.Is(res.Error, domain.ErrValidation) {
			return res.Error
		}
		if isDupKey(res.Error) {
			return fmt.Errorf("%w: user is taken", domain.ErrConflict)
		}
		return domain.NewStoreError("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		u.Version = prev
		return domain.ErrStaleWrite
	}
	return nil
}
