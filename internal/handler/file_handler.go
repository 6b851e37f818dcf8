package handler

import (
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/middleware"
	"chat-gateway/internal/service"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FileHandler 上传与下载处理器
type FileHandler struct {
	files  *service.FileService
	logger *logrus.Logger
}

// NewFileHandler 创建文件处理器
func NewFileHandler(files *service.FileService, logger *logrus.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// uploadResult content 位于顶层，与对话响应保持一致
type uploadResult struct {
	utils.Response
	dto.UploadResponse
}

// Upload 上传文件
// @Summary 上传文件
// @Tags 文件
// @Accept multipart/form-data
// @Param file formData file true "文件"
// @Success 200 {object} dto.UploadResponse
// @Router /api/upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	username, _ := middleware.GetUsername(c)

	header, err := c.FormFile("file")
	if err != nil {
		utils.ErrorResponse(c, errs.ErrNoFile)
		return
	}

	resp, err := h.files.Save(header)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"username": username,
		"file":     resp.Filename,
		"size":     resp.Size,
	}).Info("文件上传成功")

	c.JSON(200, uploadResult{
		Response:       utils.Response{Success: true, Msg: utils.T(c, i18n.MsgSuccess, nil)},
		UploadResponse: *resp,
	})
}

// Serve 校验签名后返回文件
func (h *FileHandler) Serve(c *gin.Context) {
	path, err := h.files.Path(c.Param("name"), c.Query("token"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	c.File(path)
}
