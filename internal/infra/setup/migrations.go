package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// MigrateDB 迁移全部数据库表结构。
// User 和 Room 的唯一索引由结构体上的 GORM tag 描述 (size:191 以兼容 utf8mb4)。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.Participant{},
		&domain.Message{},
	)
	if err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}
