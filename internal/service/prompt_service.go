package service

import (
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/utils"
)

// PromptService 系统提示词预设
type PromptService struct {
	repo *repository.SystemPromptRepository
}

// NewPromptService 创建提示词服务
func NewPromptService(repo *repository.SystemPromptRepository) *PromptService {
	return &PromptService{repo: repo}
}

// Presets 有效预设按 role_group 分组
func (s *PromptService) Presets() (map[string][]dto.PromptPreset, error) {
	valid := true
	prompts, _, err := s.repo.List(dto.SystemPromptFilter{StatusValid: &valid})
	if err != nil {
		return nil, errs.Internal(err)
	}

	groups := make(map[string][]dto.PromptPreset)
	for _, p := range prompts {
		groups[p.RoleGroup] = append(groups[p.RoleGroup], dto.PromptPreset{
			ID:          p.ID,
			RoleName:    p.RoleName,
			RoleDesc:    p.RoleDesc,
			RoleContent: p.RoleContent,
		})
	}
	return groups, nil
}

func (s *PromptService) List(filter dto.SystemPromptFilter) ([]models.SystemPrompt, int64, error) {
	return s.repo.List(filter)
}

func (s *PromptService) Get(id uint) (*models.SystemPrompt, error) {
	return s.repo.GetByID(id)
}

// Create 创建提示词
func (s *PromptService) Create(req *dto.CreateSystemPromptRequest) (*models.SystemPrompt, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}
	prompt := &models.SystemPrompt{
		RoleName:    req.RoleName,
		RoleGroup:   req.RoleGroup,
		RoleDesc:    req.RoleDesc,
		RoleContent: req.RoleContent,
		StatusValid: req.StatusValid,
	}
	if err := s.repo.Create(prompt); err != nil {
		return nil, err
	}
	return prompt, nil
}

// Update 部分更新提示词
func (s *PromptService) Update(id uint, req *dto.UpdateSystemPromptRequest) (*models.SystemPrompt, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}
	prompt, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req.RoleName != nil {
		prompt.RoleName = *req.RoleName
	}
	if req.RoleGroup != nil {
		prompt.RoleGroup = *req.RoleGroup
	}
	if req.RoleDesc != nil {
		prompt.RoleDesc = *req.RoleDesc
	}
	if req.RoleContent != nil {
		prompt.RoleContent = *req.RoleContent
	}
	if req.StatusValid != nil {
		prompt.StatusValid = *req.StatusValid
	}
	if err := s.repo.Update(prompt); err != nil {
		return nil, err
	}
	return prompt, nil
}

func (s *PromptService) Delete(id uint) error {
	return s.repo.Delete(id)
}
