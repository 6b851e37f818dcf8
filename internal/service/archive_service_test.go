package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/models"
	"chat-gateway/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestArchiveService_Run(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	for _, d := range []models.Dialog{
		{Username: "alice", ChatType: models.ChatTypeChat, DialogName: "old", StartDate: "2024-04-01", Context: datatypes.JSON(`[]`)},
		{Username: "alice", ChatType: models.ChatTypeChat, DialogName: "edge", StartDate: "2024-04-22", Context: datatypes.JSON(`[]`)},
		{Username: "bob", ChatType: models.ChatTypeImage, DialogName: "recent", StartDate: "2024-04-29", Context: datatypes.JSON(`[]`)},
	} {
		d := d
		require.NoError(t, db.Create(&d).Error)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.UsageLog{Username: "alice", ModelName: "gpt-4o", Usage: i}).Error)
	}

	svc := NewArchiveService(db, config.ArchiveConfig{Dir: dir, DialogDays: 8}, logger.Discard())
	svc.now = func() time.Time { return time.Date(2024, 4, 30, 3, 0, 0, 0, time.Local) }

	result, err := svc.Run()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logs-20240430.db"), result.File)
	assert.Equal(t, int64(1), result.Dialogs)
	assert.Equal(t, int64(3), result.Logs)

	remaining := dialogs(t, db)
	require.Len(t, remaining, 2)
	assert.Equal(t, "edge", remaining[0].DialogName)
	assert.Empty(t, usageLogs(t, db))

	_, err = os.Stat(result.File)
	require.NoError(t, err)

	archive, err := models.Open(result.File)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := archive.DB(); err == nil {
			sqlDB.Close()
		}
	})
	assert.Len(t, dialogs(t, archive), 1)
	assert.Len(t, usageLogs(t, archive), 3)

	// 同一天重复执行不报错
	_, err = svc.Run()
	require.NoError(t, err)
}

func TestArchiveService_RunManyLogs(t *testing.T) {
	if testing.Short() {
		t.Skip("大批量归档较慢")
	}
	db := newTestDB(t)

	// 超过 sqlite 单条语句的变量上限
	const total = 40000
	logs := make([]models.UsageLog, total)
	for i := range logs {
		logs[i] = models.UsageLog{Username: "alice", ModelName: "gpt-4o-mini", Usage: i % 100}
	}
	require.NoError(t, db.CreateInBatches(logs, 1000).Error)
	require.NoError(t, db.Create(&models.Dialog{
		Username: "alice", ChatType: models.ChatTypeChat, DialogName: "old", StartDate: "2024-01-01", Context: datatypes.JSON(`[]`),
	}).Error)

	svc := NewArchiveService(db, config.ArchiveConfig{Dir: t.TempDir(), DialogDays: 8}, logger.Discard())
	svc.now = func() time.Time { return time.Date(2024, 4, 30, 3, 0, 0, 0, time.Local) }

	result, err := svc.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(total), result.Logs)
	assert.Equal(t, int64(1), result.Dialogs)

	var left int64
	require.NoError(t, db.Model(&models.UsageLog{}).Count(&left).Error)
	assert.Zero(t, left)

	archive, err := models.Open(result.File)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := archive.DB(); err == nil {
			sqlDB.Close()
		}
	})
	var archived int64
	require.NoError(t, archive.Model(&models.UsageLog{}).Count(&archived).Error)
	assert.Equal(t, int64(total), archived)
}
