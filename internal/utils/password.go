package utils

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// GenerateSalt 生成16位十六进制随机盐
func GenerateSalt() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashPassword 对 salt+password 做bcrypt哈希
func HashPassword(password, salt string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(salt+password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword 验证密码
func CheckPassword(password, salt, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(salt+password))
}
