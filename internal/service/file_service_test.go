package service

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chat-gateway/internal/config"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/i18n"
	"chat-gateway/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileService(t *testing.T) *FileService {
	svc, err := NewFileService(config.UploadConfig{
		Dir:        t.TempDir(),
		MaxSize:    1024,
		AllowedExt: []string{"txt", "png"},
		SecretKey:  "test-secret",
		URLTTL:     3600,
	}, logger.Discard())
	require.NoError(t, err)
	return svc
}

// fileHeader 构造上传表单中的文件头
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(4096))
	return req.MultipartForm.File["file"][0]
}

func TestFileService_SaveAndLoad(t *testing.T) {
	svc := newFileService(t)

	resp, err := svc.Save(fileHeader(t, "../../notes.TXT", []byte("hello")))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.Filename, ".txt"))
	assert.True(t, strings.HasPrefix(resp.Content, "/uploads/"+resp.Filename+"?token="))
	assert.Equal(t, int64(5), resp.Size)

	data, name, err := svc.Load("http://gateway.local" + resp.Content)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, resp.Filename, name)

	token := resp.Content[strings.Index(resp.Content, "token=")+len("token="):]
	path, err := svc.Path(resp.Filename, token)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(svc.cfg.Dir, resp.Filename), path)
}

func TestFileService_Rejects(t *testing.T) {
	svc := newFileService(t)

	_, err := svc.Save(nil)
	assert.True(t, errors.Is(err, errs.ErrNoFile))

	_, err = svc.Save(fileHeader(t, "run.sh", []byte("echo")))
	require.Error(t, err)
	assert.Equal(t, i18n.MsgFileTypeNotAllowed, errs.From(err).MsgID)

	_, err = svc.Save(fileHeader(t, "big.txt", bytes.Repeat([]byte("x"), 2048)))
	require.Error(t, err)
	assert.Equal(t, i18n.MsgFileTooLarge, errs.From(err).MsgID)

	entries, err := os.ReadDir(svc.cfg.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileService_Token(t *testing.T) {
	svc := newFileService(t)
	resp, err := svc.Save(fileHeader(t, "a.png", []byte("PNG")))
	require.NoError(t, err)

	other, err := svc.Save(fileHeader(t, "b.png", []byte("PNG2")))
	require.NoError(t, err)
	otherToken := other.Content[strings.Index(other.Content, "token=")+len("token="):]

	tests := []struct {
		name  string
		file  string
		token string
	}{
		{"缺少令牌", resp.Filename, ""},
		{"伪造令牌", resp.Filename, "abc.def.ghi"},
		{"其他文件的令牌", resp.Filename, otherToken},
		{"路径穿越", "../" + resp.Filename, otherToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Path(tt.file, tt.token)
			assert.True(t, errors.Is(err, errs.ErrInvalidFileToken))
		})
	}

	assert.True(t, svc.IsLocal(resp.Content))
	assert.False(t, svc.IsLocal("https://cdn.example.com/x.png"))
}
