package db

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_workshop_tools/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 每个测试一个独立的内存库（命名共享，避免 :memory: 每连接一个库的坑）
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	return gdb
}

func newTestRepo(t *testing.T, now time.Time) *Repo {
	t.Helper()
	return NewRepo(openTestDB(t)).WithClock(func() time.Time { return now })
}

func seedUser(t *testing.T, r *Repo, role string, active bool) *models.User {
	t.Helper()
	u := &models.User{
		ID:       uuid.NewString(),
		Name:     "user-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@shop.test",
		Role:     role,
		IsActive: active,
	}
	require.NoError(t, r.DB.Create(u).Error)
	// default:true 会吃掉零值的 IsActive=false，显式落库一次
	require.NoError(t, r.DB.Model(u).UpdateColumn("is_active", active).Error)
	return u
}

func seedTool(t *testing.T, r *Repo, status string) *models.Tool {
	t.Helper()
	tool := &models.Tool{
		ID:       uuid.NewString(),
		Name:     "Torque Wrench " + uuid.NewString()[:4],
		Category: "hand-tools",
		Status:   status,
		Location: "main shelve",
	}
	require.NoError(t, r.DB.Create(tool).Error)
	return tool
}
