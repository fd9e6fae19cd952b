package domain

import (
	"fmt"
	"unicode/utf8"
)

// 与表结构 size 保持一致
const (
	MaxUsernameLen  = 64
	MaxEmailLen     = 191
	MaxWebsiteLen   = 255
	MaxAvatarURLLen = 512
	MaxTitleLen     = 255

	// MaxPasswordBytes bcrypt 只接受 72 字节以内
	MaxPasswordBytes = 72
)

// CheckLen 按字符数校验
func CheckLen(field, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrValidation, field, max)
	}
	return nil
}

func CheckPassword(pw string) error {
	if len(pw) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, MaxPasswordBytes)
	}
	return nil
}
