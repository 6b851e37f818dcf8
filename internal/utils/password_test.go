package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt, 16)

	hash, err := HashPassword("s3cret", salt)
	require.NoError(t, err)

	assert.NoError(t, CheckPassword("s3cret", salt, hash))
	assert.Error(t, CheckPassword("wrong", salt, hash))
	assert.Error(t, CheckPassword("s3cret", "otherSalt", hash))
}

func TestFileURLSigner(t *testing.T) {
	signer := NewFileURLSigner("key", time.Hour)

	token, err := signer.Sign("a.png")
	require.NoError(t, err)
	assert.NoError(t, signer.Verify("a.png", token))
	assert.Error(t, signer.Verify("b.png", token))
	assert.Error(t, NewFileURLSigner("other", time.Hour).Verify("a.png", token))

	expired := NewFileURLSigner("key", -time.Minute)
	old, err := expired.Sign("a.png")
	require.NoError(t, err)
	assert.Error(t, signer.Verify("a.png", old))

	url, err := signer.URL("a.png")
	require.NoError(t, err)
	assert.Contains(t, url, "/uploads/a.png?token=")
}

func TestFileHelpers(t *testing.T) {
	assert.Equal(t, "passwd", SecureFilename("../../etc/passwd"))
	assert.Equal(t, "my_file.txt", SecureFilename("my file.txt"))
	assert.Equal(t, "file", SecureFilename(".."))
	assert.Equal(t, "png", FileExt("A.PNG"))
	assert.True(t, AllowedExt("PNG", []string{"png", "jpg"}))
	assert.False(t, AllowedExt("exe", []string{"png"}))
	assert.Equal(t, "你好世界", TruncateRunes("你好世界", 4, "..."))
	assert.Equal(t, "你好...", TruncateRunes("你好世界", 2, "..."))
}

type signupForm struct {
	Username string `json:"username" validate:"required,username"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(signupForm{Username: "alice_1", Role: "admin"}))

	err := ValidateStruct(signupForm{Username: "a!"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")

	err = ValidateStruct(signupForm{Username: "alice", Role: "root"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role")
}
