package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"chat-gateway/internal/config"
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const uploadURLPrefix = "/uploads/"

// FileService 上传文件的保存与签名访问
type FileService struct {
	cfg    config.UploadConfig
	signer *utils.FileURLSigner
	logger *logrus.Logger
}

// NewFileService 创建文件服务
func NewFileService(cfg config.UploadConfig, logger *logrus.Logger) (*FileService, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &FileService{
		cfg:    cfg,
		signer: utils.NewFileURLSigner(cfg.SecretKey, cfg.GetURLTTL()),
		logger: logger,
	}, nil
}

// Save 保存上传文件，返回带令牌的访问路径
func (s *FileService) Save(header *multipart.FileHeader) (*dto.UploadResponse, error) {
	if header == nil {
		return nil, errs.ErrNoFile
	}
	if header.Size > s.cfg.MaxSize {
		return nil, s.tooLarge()
	}

	ext := utils.FileExt(header.Filename)
	if !utils.AllowedExt(ext, s.cfg.AllowedExt) {
		return nil, &errs.Error{
			Type:  errs.TypeInvalidParam,
			MsgID: i18n.MsgFileTypeNotAllowed,
			Data:  map[string]interface{}{"Ext": ext},
		}
	}

	src, err := header.Open()
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("读取上传文件失败: %w", err))
	}
	defer src.Close()

	name := uuid.New().String() + "." + ext
	dst, err := os.Create(filepath.Join(s.cfg.Dir, name))
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("创建文件失败: %w", err))
	}
	written, err := io.Copy(dst, io.LimitReader(src, s.cfg.MaxSize+1))
	closeErr := dst.Close()
	if err == nil && written > s.cfg.MaxSize {
		os.Remove(dst.Name())
		return nil, s.tooLarge()
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst.Name())
		return nil, errs.Internal(fmt.Errorf("保存文件失败: %w", err))
	}

	link, err := s.signer.URL(name)
	if err != nil {
		os.Remove(dst.Name())
		return nil, errs.Internal(fmt.Errorf("签发文件令牌失败: %w", err))
	}

	s.logger.WithFields(logrus.Fields{
		"original": utils.SecureFilename(header.Filename),
		"stored":   name,
		"size":     written,
	}).Info("文件已上传")

	return &dto.UploadResponse{Content: link, Filename: name, Size: written}, nil
}

// Path 校验令牌后返回文件的本地路径
func (s *FileService) Path(name, token string) (string, error) {
	if name != utils.SecureFilename(name) || token == "" {
		return "", errs.ErrInvalidFileToken
	}
	if err := s.signer.Verify(name, token); err != nil {
		return "", errs.ErrInvalidFileToken
	}

	path := filepath.Join(s.cfg.Dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", errs.ErrNotFound
	}
	return path, nil
}

// IsLocal 链接是否指向本服务的上传文件
func (s *FileService) IsLocal(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path, uploadURLPrefix)
}

// Load 读取本服务签发的文件链接对应的内容
func (s *FileService) Load(ref string) ([]byte, string, error) {
	u, err := url.Parse(ref)
	if err != nil || !strings.HasPrefix(u.Path, uploadURLPrefix) {
		return nil, "", errs.ErrInvalidFileToken
	}

	name := strings.TrimPrefix(u.Path, uploadURLPrefix)
	path, err := s.Path(name, u.Query().Get("token"))
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errs.Internal(fmt.Errorf("读取文件失败: %w", err))
	}
	return data, name, nil
}

// MaxSize 上传大小上限
func (s *FileService) MaxSize() int64 {
	return s.cfg.MaxSize
}

func (s *FileService) tooLarge() error {
	return &errs.Error{
		Type:  errs.TypeInvalidParam,
		MsgID: i18n.MsgFileTooLarge,
		Data:  map[string]interface{}{"Limit": fmt.Sprintf("%dMB", s.cfg.MaxSize>>20)},
	}
}
