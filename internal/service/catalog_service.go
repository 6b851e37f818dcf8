package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"chat-gateway/internal/config"
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/utils"
	"chat-gateway/pkg/metrics"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const catalogCacheKey = "models"

// ModelLister 上游模型列表
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// CatalogService 模型目录：上游列表过滤后合并本地元数据，按TTL缓存
type CatalogService struct {
	lister   ModelLister
	metaRepo *repository.ModelMetaRepository
	cache    *cache.Cache
	cfg      config.CatalogConfig
	logger   *logrus.Logger
}

// NewCatalogService 创建模型目录服务
func NewCatalogService(lister ModelLister, metaRepo *repository.ModelMetaRepository, cfg config.CatalogConfig, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		lister:   lister,
		metaRepo: metaRepo,
		cache:    cache.New(cfg.GetTTL(), cfg.GetTTL()),
		cfg:      cfg,
		logger:   logger,
	}
}

// ListModels 返回可用模型，上游失败时返回空列表且不缓存
func (s *CatalogService) ListModels(ctx context.Context) []dto.ModelOption {
	if cached, ok := s.cache.Get(catalogCacheKey); ok {
		metrics.RecordCacheHit()
		return cached.([]dto.ModelOption)
	}
	metrics.RecordCacheMiss()

	ids, err := s.lister.ListModels(ctx)
	if err != nil {
		s.logger.WithError(err).Error("获取上游模型列表失败")
		return []dto.ModelOption{}
	}

	metaIndex, err := s.metaRepo.IndexByName()
	if err != nil {
		s.logger.WithError(err).Error("读取模型元数据失败")
		return []dto.ModelOption{}
	}

	options := s.merge(FilterModelIDs(ids, s.cfg.IncludePrefixes, s.cfg.ExcludeKeywords), metaIndex)
	s.cache.SetDefault(catalogCacheKey, options)

	s.logger.WithFields(logrus.Fields{
		"upstream": len(ids),
		"visible":  len(options),
	}).Info("模型目录已刷新")
	return options
}

// IsValid 模型是否在目录中，不区分大小写
func (s *CatalogService) IsValid(ctx context.Context, model string) bool {
	_, ok := s.Resolve(ctx, model)
	return ok
}

// Resolve 按不区分大小写匹配目录，返回上游使用的模型ID
func (s *CatalogService) Resolve(ctx context.Context, model string) (string, bool) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", false
	}
	for _, m := range s.ListModels(ctx) {
		if strings.EqualFold(m.ID, model) {
			return m.ID, true
		}
	}
	return "", false
}

// Grouped 按厂商分组的目录
func (s *CatalogService) Grouped(ctx context.Context) []dto.ModelGroup {
	byVendor := map[string][]dto.GroupedModel{}
	var vendors []string
	for _, m := range s.ListModels(ctx) {
		if _, ok := byVendor[m.Group]; !ok {
			vendors = append(vendors, m.Group)
		}
		byVendor[m.Group] = append(byVendor[m.Group], dto.GroupedModel{
			Value:       m.ID,
			Label:       m.Label,
			Description: m.Description,
			Recommend:   m.Recommend,
			Modality:    m.Modality,
		})
	}
	sort.Strings(vendors)

	groups := make([]dto.ModelGroup, 0, len(vendors))
	for _, v := range vendors {
		groups = append(groups, dto.ModelGroup{Vendor: v, Models: byVendor[v]})
	}
	return groups
}

// Invalidate 清空缓存，元数据变更后调用
func (s *CatalogService) Invalidate() {
	s.cache.Delete(catalogCacheKey)
}

// SyncMeta 为上游新出现的模型补充元数据，返回新建数量
func (s *CatalogService) SyncMeta(ctx context.Context) (int, error) {
	ids, err := s.lister.ListModels(ctx)
	if err != nil {
		return 0, errs.Wrap(errs.TypeAPIError, errs.ErrInternal.MsgID, err)
	}
	index, err := s.metaRepo.IndexByName()
	if err != nil {
		return 0, err
	}

	created := 0
	for _, id := range FilterModelIDs(ids, s.cfg.IncludePrefixes, s.cfg.ExcludeKeywords) {
		if _, ok := index[strings.ToLower(id)]; ok {
			continue
		}
		meta := &models.ModelMeta{
			ModelName:   id,
			ModelType:   s.modality(id, nil),
			StatusValid: true,
			ModelGroup:  vendorOf(id),
		}
		if err := s.metaRepo.Create(meta); err != nil {
			if errors.Is(err, errs.ErrAlreadyExists) {
				continue
			}
			return created, err
		}
		created++
	}

	if created > 0 {
		s.Invalidate()
	}
	s.logger.WithField("created", created).Info("模型元数据同步完成")
	return created, nil
}

func (s *CatalogService) merge(ids []string, index map[string]models.ModelMeta) []dto.ModelOption {
	options := make([]dto.ModelOption, 0, len(ids))
	for _, id := range ids {
		opt := dto.ModelOption{ID: id, Label: id, Group: vendorOf(id)}

		meta, hasMeta := index[strings.ToLower(id)]
		if hasMeta {
			if !meta.StatusValid {
				continue
			}
			opt.Recommend = meta.Recommend
			opt.Description = meta.ModelDesc
			if meta.ModelGroup != "" {
				opt.Group = meta.ModelGroup
			}
			opt.Modality = s.modality(id, &meta)
		} else {
			opt.Modality = s.modality(id, nil)
		}
		options = append(options, opt)
	}

	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Recommend != options[j].Recommend {
			return options[i].Recommend
		}
		return options[i].ID < options[j].ID
	})
	return options
}

// modality 元数据优先，否则按关键字判断是否为图片模型
func (s *CatalogService) modality(id string, meta *models.ModelMeta) int {
	if meta != nil && meta.ModelType != 0 {
		return meta.ModelType
	}
	lower := strings.ToLower(id)
	for _, kw := range s.cfg.ImageKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return models.ModelTypeImage
		}
	}
	return models.ModelTypeText
}

// FilterModelIDs 保留匹配任一前缀且不含任何排除关键字的模型，排除优先。
// 前缀列表为空时不按前缀过滤，比较忽略大小写。
func FilterModelIDs(ids, includePrefixes, excludeKeywords []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		lower := strings.ToLower(id)
		if seen[lower] || !hasAnyPrefix(lower, includePrefixes) || containsAny(lower, excludeKeywords) {
			continue
		}
		seen[lower] = true
		out = append(out, id)
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// vendorOf 取模型名第一个 / 或 - 之前的部分作为厂商
func vendorOf(id string) string {
	if i := strings.IndexAny(id, "/-"); i > 0 {
		return strings.ToLower(id[:i])
	}
	return strings.ToLower(id)
}

// ListMeta 元数据列表
func (s *CatalogService) ListMeta(filter dto.ModelMetaFilter) ([]models.ModelMeta, int64, error) {
	return s.metaRepo.List(filter)
}

// GetMeta 获取元数据
func (s *CatalogService) GetMeta(id uint) (*models.ModelMeta, error) {
	return s.metaRepo.GetByID(id)
}

// CreateMeta 创建元数据
func (s *CatalogService) CreateMeta(req *dto.CreateModelMetaRequest) (*models.ModelMeta, error) {
	if req.ModelType == 0 {
		req.ModelType = models.ModelTypeText
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}

	meta := &models.ModelMeta{
		ModelName:   req.ModelName,
		ModelDesc:   req.ModelDesc,
		ModelType:   req.ModelType,
		Recommend:   req.Recommend,
		StatusValid: req.StatusValid,
		ModelGroup:  req.ModelGroup,
	}
	if err := s.metaRepo.Create(meta); err != nil {
		return nil, err
	}
	s.Invalidate()
	return meta, nil
}

// UpdateMeta 部分更新元数据
func (s *CatalogService) UpdateMeta(id uint, req *dto.UpdateModelMetaRequest) (*models.ModelMeta, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}

	meta, err := s.metaRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req.ModelName != nil {
		meta.ModelName = *req.ModelName
	}
	if req.ModelDesc != nil {
		meta.ModelDesc = *req.ModelDesc
	}
	if req.ModelType != nil {
		meta.ModelType = *req.ModelType
	}
	if req.Recommend != nil {
		meta.Recommend = *req.Recommend
	}
	if req.StatusValid != nil {
		meta.StatusValid = *req.StatusValid
	}
	if req.ModelGroup != nil {
		meta.ModelGroup = *req.ModelGroup
	}

	if err := s.metaRepo.Update(meta); err != nil {
		return nil, err
	}
	s.Invalidate()
	return meta, nil
}

// DeleteMeta 删除元数据
func (s *CatalogService) DeleteMeta(id uint) error {
	if err := s.metaRepo.Delete(id); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}
