// Package testutil 提供测试使用的数据库与日志构造
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/nsxzhou1114/cms-api/internal/database"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB 创建一个已迁移的内存SQLite数据库，测试结束时自动关闭
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取测试数据库连接失败: %v", err)
	}
	// 共享缓存模式下单连接可避免表级锁冲突
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.InitTables(db); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

// Logger 返回测试日志
func Logger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
