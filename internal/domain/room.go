package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Room 表示一个多语言聊天房间。
type Room struct {
	ID         uint      `gorm:"primaryKey"`                    // 房间唯一标识符 (主键)
	CreatorID  uint      `gorm:"index;not null"`                // 创建该房间的用户 ID (外键关联到 User.ID, 添加索引)
	Name       string    `gorm:"type:varchar(191);not null"`    // 房间名称
	JoinCode   string    `gorm:"uniqueIndex;size:191;not null"` // 用于加入房间的 6 位邀请码，必须唯一且不能为空
	Languages  string    `gorm:"type:text"`                     // 预期出现的语言代码集合，JSON 数组字符串
	IsActive   bool      `gorm:"not null;default:true"`         // 活跃标志，管理员停用或清理任务置为 false
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	LastActive time.Time `gorm:"index"` // 房间最后活跃时间 (消息写入时刷新，用于清理不活跃房间)
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// ParseLanguages 将 Languages 字段 (JSON 数组字符串) 解析为语言代码切片。
func (r *Room) ParseLanguages() ([]string, error) {
	if r.Languages == "" || r.Languages == "null" {
		return nil, nil
	}
	var langs []string
	if err := json.Unmarshal([]byte(r.Languages), &langs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room languages: %w", err)
	}
	return langs, nil
}

// SetLanguages 将语言代码切片序列化为 JSON 字符串，并设置到 Languages 字段。
func (r *Room) SetLanguages(langs []string) error {
	if len(langs) == 0 {
		r.Languages = ""
		return nil
	}
	bytes, err := json.Marshal(langs)
	if err != nil {
		return fmt.Errorf("failed to marshal room languages: %w", err)
	}
	r.Languages = string(bytes)
	return nil
}
