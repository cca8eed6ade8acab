package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the credential store: users, admins and settings. Every
// method touches a single record.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id uint, update UserUpdate) error
	// ExpireUser flips an approved user whose expiry date is before now to
	// expired. It reports whether a row changed.
	ExpireUser(ctx context.Context, id uint, now time.Time) (bool, error)
	// ClearSession nulls the session pointer if it still holds token.
	ClearSession(ctx context.Context, id uint, token string) error

	CreateAdmin(ctx context.Context, admin *Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*Admin, error)
	GetAdminByID(ctx context.Context, id uint) (*Admin, error)
	ListAdmins(ctx context.Context) ([]Admin, error)
	CountAdmins(ctx context.Context) (int64, error)
	DeleteAdmin(ctx context.Context, id uint) error

	GetSetting(ctx context.Context, key string) (*Setting, error)
	PutSetting(ctx context.Context, key string, value int) (*Setting, error)
	// EnsureSetting inserts key=value unless the key already exists.
	EnsureSetting(ctx context.Context, key string, value int) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

func (r *repository) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Order("registration_date DESC").
		Order("id DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *repository) UpdateUser(ctx context.Context, id uint, update UserUpdate) error {
	cols := update.columns()
	if len(cols) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) ExpireUser(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND status = ? AND expiry_date < ?", id, StatusApproved, now).
		Update("status", StatusExpired)
	if res.Error != nil {
		return false, fmt.Errorf("expire user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ClearSession(ctx context.Context, id uint, token string) error {
	err := r.db.WithContext(ctx).Model(&User{}).
		Where("id = ? AND active_session_token = ?", id, token).
		Update("active_session_token", nil).Error
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (r *repository) CreateAdmin(ctx context.Context, admin *Admin) error {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAdminExists
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (r *repository) GetAdminByUsername(ctx context.Context, username string) (*Admin, error) {
	var admin Admin
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("get admin by username: %w", err)
	}
	return &admin, nil
}

func (r *repository) GetAdminByID(ctx context.Context, id uint) (*Admin, error) {
	var admin Admin
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("get admin by id: %w", err)
	}
	return &admin, nil
}

func (r *repository) ListAdmins(ctx context.Context) ([]Admin, error) {
	var admins []Admin
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

func (r *repository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Admin{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func (r *repository) DeleteAdmin(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Admin{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete admin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAdminNotFound
	}
	return nil
}

func (r *repository) GetSetting(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return &s, nil
}

func (r *repository) PutSetting(ctx context.Context, key string, value int) (*Setting, error) {
	res := r.db.WithContext(ctx).Model(&Setting{}).
		Where("key = ?", key).
		Updates(map[string]interface{}{
			"value":      value,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("put setting %q: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		s := Setting{Key: key, Value: value, Version: 1}
		if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
			return nil, fmt.Errorf("put setting %q: %w", key, err)
		}
	}
	return r.GetSetting(ctx, key)
}

func (r *repository) EnsureSetting(ctx context.Context, key string, value int) error {
	s := Setting{Key: key, Value: value, Version: 1}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&s).Error
	if err != nil {
		return fmt.Errorf("ensure setting %q: %w", key, err)
	}
	return nil
}
