// Package domain 定义了应用程序中使用的数据结构 (数据库模型)。
package domain

import "time"

// User 表示应用程序中的用户。
type User struct {
	ID                uint      `gorm:"primaryKey"` // 用户唯一标识符 (主键)
	Username          string    `gorm:"type:varchar(191);uniqueIndex:idx_username;not null"`
	Password          string    `gorm:"type:text;not null"` // 存储的是哈希后的密码，不能为空
	Email             string    `gorm:"type:varchar(191);uniqueIndex:idx_email"`
	DisplayName       string    `gorm:"type:varchar(191);not null"` // 聊天界面展示的昵称
	PreferredLanguage string    `gorm:"size:8;not null;default:en"` // 全局首选语言代码 (ISO 639-1)
	ProfilePhoto      string    `gorm:"type:text"`                  // 头像 URL，可为空
	CreatedAt         time.Time `gorm:"autoCreateTime"`             // 用户记录创建时间 (GORM 自动填充)
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// Summary 返回广播消息时嵌入的发送者摘要 (id + 昵称 + 头像)。
// 不包含密码等敏感字段。
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		ProfilePhoto: u.ProfilePhoto,
	}
}

// UserSummary 是对外暴露的用户精简视图。
type UserSummary struct {
	ID           uint   `json:"id"`
	DisplayName  string `json:"displayName"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}
