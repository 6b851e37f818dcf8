package service

import (
	"context"
	"errors"
	"testing"

	"chat-gateway/internal/config"
	"chat-gateway/internal/dto"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T, lister *mockLister, cfg config.CatalogConfig) (*CatalogService, *repository.ModelMetaRepository) {
	repo := repository.NewModelMetaRepository(newTestDB(t))
	if cfg.TTL == 0 {
		cfg.TTL = 3600
	}
	return NewCatalogService(lister, repo, cfg, logger.Discard()), repo
}

func TestFilterModelIDs(t *testing.T) {
	ids := []string{"gpt-4o", "GPT-4o-mini", "gpt-4o-realtime", "claude-3-opus", "whisper-1", "gpt-4o"}

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{"不过滤", nil, nil, []string{"gpt-4o", "GPT-4o-mini", "gpt-4o-realtime", "claude-3-opus", "whisper-1"}},
		{"前缀", []string{"gpt"}, nil, []string{"gpt-4o", "GPT-4o-mini", "gpt-4o-realtime"}},
		{"排除优先", []string{"gpt", "claude"}, []string{"realtime", "Opus"}, []string{"gpt-4o", "GPT-4o-mini"}},
		{"只排除", nil, []string{"whisper"}, []string{"gpt-4o", "GPT-4o-mini", "gpt-4o-realtime", "claude-3-opus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterModelIDs(ids, tt.include, tt.exclude))
		})
	}
}

func TestCatalogService_ListModelsMergesMeta(t *testing.T) {
	lister := &mockLister{ListModelsFunc: func(context.Context) ([]string, error) {
		return []string{"gpt-4o-mini", "gpt-4o", "dall-e-3", "gpt-3.5-turbo", "deepseek/chat"}, nil
	}}
	svc, repo := newCatalog(t, lister, config.CatalogConfig{ImageKeywords: []string{"dall-e"}})

	require.NoError(t, repo.Create(&models.ModelMeta{ModelName: "GPT-4o", ModelDesc: "旗舰", ModelType: 1, Recommend: true, StatusValid: true, ModelGroup: "openai"}))
	require.NoError(t, repo.Create(&models.ModelMeta{ModelName: "gpt-3.5-turbo", ModelType: 1, StatusValid: false}))

	got := svc.ListModels(context.Background())
	require.Len(t, got, 4)

	assert.Equal(t, dto.ModelOption{ID: "gpt-4o", Label: "gpt-4o", Recommend: true, Description: "旗舰", Modality: 1, Group: "openai"}, got[0])
	assert.Equal(t, "dall-e-3", got[1].ID)
	assert.Equal(t, models.ModelTypeImage, got[1].Modality)
	assert.Equal(t, "dall", got[1].Group)
	assert.Equal(t, "deepseek", got[2].Group)
	assert.Equal(t, "gpt-4o-mini", got[3].ID)

	assert.True(t, svc.IsValid(context.Background(), "gpt-4o-mini"))
	assert.False(t, svc.IsValid(context.Background(), "gpt-3.5-turbo"))
	assert.False(t, svc.IsValid(context.Background(), ""))

	// 大小写不同也能匹配，返回目录中的ID
	assert.True(t, svc.IsValid(context.Background(), "GPT-4o-Mini"))
	id, ok := svc.Resolve(context.Background(), " GPT-4O-MINI ")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", id)
}

func TestCatalogService_Cache(t *testing.T) {
	fail := true
	lister := &mockLister{ListModelsFunc: func(context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("upstream down")
		}
		return []string{"gpt-4o"}, nil
	}}
	svc, repo := newCatalog(t, lister, config.CatalogConfig{})

	// 失败不缓存
	assert.Empty(t, svc.ListModels(context.Background()))
	fail = false
	assert.Len(t, svc.ListModels(context.Background()), 1)
	assert.Len(t, svc.ListModels(context.Background()), 1)
	assert.Equal(t, 2, lister.calls)

	// 修改元数据后重新拉取
	_, err := svc.CreateMeta(&dto.CreateModelMetaRequest{ModelName: "gpt-4o", ModelType: 1, StatusValid: false})
	require.NoError(t, err)
	assert.Empty(t, svc.ListModels(context.Background()))
	assert.Equal(t, 3, lister.calls)

	total, err := repo.IndexByName()
	require.NoError(t, err)
	assert.Len(t, total, 1)
}

func TestCatalogService_Grouped(t *testing.T) {
	lister := &mockLister{ListModelsFunc: func(context.Context) ([]string, error) {
		return []string{"gpt-4o", "claude-3-haiku", "gpt-4o-mini"}, nil
	}}
	svc, _ := newCatalog(t, lister, config.CatalogConfig{})

	groups := svc.Grouped(context.Background())
	require.Len(t, groups, 2)
	assert.Equal(t, "claude", groups[0].Vendor)
	assert.Equal(t, "gpt", groups[1].Vendor)
	require.Len(t, groups[1].Models, 2)
	assert.Equal(t, "gpt-4o", groups[1].Models[0].Value)
}

func TestCatalogService_SyncMeta(t *testing.T) {
	lister := &mockLister{ListModelsFunc: func(context.Context) ([]string, error) {
		return []string{"gpt-4o", "gpt-4o-mini", "dall-e-3", "tts-1"}, nil
	}}
	svc, repo := newCatalog(t, lister, config.CatalogConfig{ExcludeKeywords: []string{"tts"}, ImageKeywords: []string{"dall-e"}})
	require.NoError(t, repo.Create(&models.ModelMeta{ModelName: "gpt-4o", ModelType: 1, StatusValid: true}))

	created, err := svc.SyncMeta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	index, err := repo.IndexByName()
	require.NoError(t, err)
	assert.Len(t, index, 3)
	assert.Equal(t, models.ModelTypeImage, index["dall-e-3"].ModelType)
	assert.True(t, index["gpt-4o-mini"].StatusValid)
	assert.False(t, index["gpt-4o-mini"].Recommend)

	created, err = svc.SyncMeta(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestCatalogService_MetaCRUD(t *testing.T) {
	lister := &mockLister{ListModelsFunc: func(context.Context) ([]string, error) { return nil, nil }}
	svc, _ := newCatalog(t, lister, config.CatalogConfig{})

	_, err := svc.CreateMeta(&dto.CreateModelMetaRequest{ModelType: 1})
	assert.Error(t, err)

	meta, err := svc.CreateMeta(&dto.CreateModelMetaRequest{ModelName: "gpt-4o", StatusValid: true})
	require.NoError(t, err)
	assert.Equal(t, models.ModelTypeText, meta.ModelType)

	desc := "更新后"
	rec := true
	updated, err := svc.UpdateMeta(meta.ID, &dto.UpdateModelMetaRequest{ModelDesc: &desc, Recommend: &rec})
	require.NoError(t, err)
	assert.Equal(t, "更新后", updated.ModelDesc)
	assert.True(t, updated.Recommend)
	assert.Equal(t, "gpt-4o", updated.ModelName)

	require.NoError(t, svc.DeleteMeta(meta.ID))
	_, err = svc.GetMeta(meta.ID)
	assert.Error(t, err)
}
