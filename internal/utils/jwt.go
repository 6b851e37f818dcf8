package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FileURLSigner 为上传文件签发带有效期的访问令牌
type FileURLSigner struct {
	secretKey  []byte
	algorithm  jwt.SigningMethod
	expireTime time.Duration
}

// NewFileURLSigner 创建文件链接签名器
func NewFileURLSigner(secretKey string, expireTime time.Duration) *FileURLSigner {
	return &FileURLSigner{
		secretKey:  []byte(secretKey),
		algorithm:  jwt.SigningMethodHS256,
		expireTime: expireTime,
	}
}

// Sign 生成文件令牌，subject 为文件名
func (s *FileURLSigner) Sign(name string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   name,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expireTime)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(s.algorithm, claims)
	return token.SignedString(s.secretKey)
}

// Verify 校验令牌并确认其属于该文件
func (s *FileURLSigner) Verify(name, tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != s.algorithm {
			return nil, errors.New("无效的签名算法")
		}
		return s.secretKey, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid || claims.Subject != name {
		return errors.New("无效的Token")
	}
	return nil
}

// URL 返回带令牌的文件访问路径
func (s *FileURLSigner) URL(name string) (string, error) {
	token, err := s.Sign(name)
	if err != nil {
		return "", err
	}
	return "/uploads/" + name + "?token=" + token, nil
}
