package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// 消息类型常量。
const (
	MessageTypeText  = "text"
	MessageTypeVoice = "voice"
	MessageTypeImage = "image"
)

// Message 表示一条已持久化的聊天消息。创建后不可变：
// 翻译在发送时计算一次并随原文一起保存，之后不再重新计算。
type Message struct {
	ID               uint      `gorm:"primaryKey"`
	RoomID           uint      `gorm:"index;not null"` // 消息所属房间 ID
	SenderID         uint      `gorm:"index;not null"` // 发送者用户 ID
	Content          string    `gorm:"type:text;not null"`
	MessageType      string    `gorm:"size:16;not null;default:text"` // text / voice / image
	DetectedLanguage string    `gorm:"size:8"`                        // 检测到的原文语言代码
	Translations     string    `gorm:"type:text"`                     // 目标语言代码 -> 译文 的 JSON 映射
	Confidence       float64   `gorm:"not null;default:1"`            // 翻译置信度 [0,1]，0 表示降级回退
	CreatedAt        time.Time `gorm:"autoCreateTime;index"`
}

// ParseTranslations 将 Translations 字段 (JSON 字符串) 解析为 map。
// 空字段返回空 map 而不是 nil，方便直接序列化到事件负载。
func (m *Message) ParseTranslations() (map[string]string, error) {
	if m.Translations == "" || m.Translations == "null" {
		return map[string]string{}, nil
	}
	var translations map[string]string
	if err := json.Unmarshal([]byte(m.Translations), &translations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message translations: %w", err)
	}
	return translations, nil
}

// SetTranslations 将翻译映射序列化为 JSON 字符串，并设置到 Translations 字段。
func (m *Message) SetTranslations(translations map[string]string) error {
	if len(translations) == 0 {
		m.Translations = ""
		return nil
	}
	bytes, err := json.Marshal(translations)
	if err != nil {
		return fmt.Errorf("failed to marshal message translations: %w", err)
	}
	m.Translations = string(bytes)
	return nil
}

// IsValidMessageType 检查消息类型是否是受支持的枚举值。
func IsValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeVoice, MessageTypeImage:
		return true
	}
	return false
}
