package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"playlog/pkg/utils"
)

type User struct {
	ID             string            `gorm:"primaryKey;size:32" json:"id"`
	Username       string            `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email          string            `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash   string            `gorm:"size:100;not null" json:"-"`
	Bio            string            `gorm:"type:text" json:"bio"`
	Website        string            `gorm:"size:255" json:"website"`
	AvatarURL      string            `gorm:"size:512" json:"avatarUrl"`
	FollowingCount int               `gorm:"not null;default:0" json:"followingCount"`
	FollowersCount int               `gorm:"not null;default:0" json:"followersCount"`
	Socials        map[string]string `gorm:"type:text;serializer:json" json:"socials"`
	Games          Library           `gorm:"type:text;serializer:json" json:"games"`
	Version        int64             `gorm:"not null;default:0" json:"-"` // 乐观锁版本号

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	plainPassword string
}

func (User) TableName() string { return "users" }

// SetPassword 记录新的明文密码，保存时才计算哈希
func (u *User) SetPassword(pw string) { u.plainPassword = pw }

// PasswordChanged 是否有待写入的新密码
func (u *User) PasswordChanged() bool { return u.plainPassword != "" }

func (u *User) BeforeSave(*gorm.DB) error {
	if u.plainPassword == "" {
		return nil
	}
	hash, err := utils.HashPassword(u.plainPassword)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.plainPassword = ""
	return nil
}

// VerifyPassword 比对候选密码与已存储的哈希
func (u *User) VerifyPassword(candidate string) bool {
	return utils.CheckPassword(candidate, u.PasswordHash)
}

// ProfilePatch 个人资料覆盖写入的字段；Password 非空时重新计算哈希
type ProfilePatch struct {
	Username  string            `json:"username"`
	Bio       string            `json:"bio"`
	Website   string            `json:"website"`
	Socials   map[string]string `json:"socials"`
	AvatarURL string            `json:"avatarUrl"`
	Password  string            `json:"password,omitempty"`
}

func (p *ProfilePatch) Validate() error {
	return errors.Join(
		CheckLen("username", strings.TrimSpace(p.Username), MaxUsernameLen),
		CheckLen("website", p.Website, MaxWebsiteLen),
		CheckLen("avatarUrl", p.AvatarURL, MaxAvatarURLLen),
		CheckPassword(p.Password),
	)
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Update 按 version 做 CAS，只写 columns；版本落后返回 ErrStaleWrite
	Update(ctx context.Context, u *User, columns ...string) error
}
