package hub

import (
	"encoding/json"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/translate"
)

// 客户端入站事件类型
const (
	EventAuthenticate = "authenticate"
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
	EventSendMessage  = "send_message"
	EventTyping       = "typing"
)

// 服务端出站事件类型
const (
	EventAuthenticated = "authenticated"
	EventError         = "error"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventOnlineUsers   = "online_users"
	EventNewMessage    = "new_message"
	EventUserTyping    = "user_typing"
)

// Envelope 是所有入站事件的外层结构，先解析 type 再按需解析负载。
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// --- 入站事件负载 ---

type AuthenticatePayload struct {
	UserID uint `json:"userId"`
}

type JoinRoomPayload struct {
	RoomID uint `json:"roomId"`
}

type LeaveRoomPayload struct {
	RoomID uint `json:"roomId"`
}

type SendMessagePayload struct {
	RoomID      uint   `json:"roomId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

type TypingPayload struct {
	RoomID   uint `json:"roomId"`
	IsTyping bool `json:"isTyping"`
}

// --- 出站事件 ---

// AuthenticatedEvent 在认证成功后发给该连接。
type AuthenticatedEvent struct {
	Type        string `json:"type"`
	UserID      uint   `json:"userId"`
	DisplayName string `json:"displayName"`
}

// ErrorEvent 只发给出错的那个连接，不广播。
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PresenceEvent 用于 user_joined 和 user_left 通知。
type PresenceEvent struct {
	Type        string `json:"type"`
	UserID      uint   `json:"userId"`
	DisplayName string `json:"displayName"`
	RoomID      uint   `json:"roomId"`
}

// OnlineUsersEvent 携带房间当前在线的参与者快照。
type OnlineUsersEvent struct {
	Type   string               `json:"type"`
	RoomID uint                 `json:"roomId"`
	Users  []domain.UserSummary `json:"users"`
}

// MessagePayload 是 new_message 事件中嵌入的消息体。
type MessagePayload struct {
	ID                uint               `json:"id"`
	RoomID            uint               `json:"roomId"`
	Content           string             `json:"content"`
	MessageType       string             `json:"messageType"`
	TranslatedContent map[string]string  `json:"translatedContent"`
	DetectedLanguage  string             `json:"detectedLanguage"`
	CreatedAt         int64              `json:"createdAt"`
	Sender            domain.UserSummary `json:"sender"`
}

// NewMessageEvent 广播给房间内所有在线参与者，包括发送者的所有连接。
type NewMessageEvent struct {
	Type              string           `json:"type"`
	Message           MessagePayload   `json:"message"`
	TranslationResult translate.Result `json:"translationResult"`
}

// TypingEvent 广播给除发送者连接外的其他在线参与者。
type TypingEvent struct {
	Type        string `json:"type"`
	RoomID      uint   `json:"roomId"`
	UserID      uint   `json:"userId"`
	DisplayName string `json:"displayName"`
	IsTyping    bool   `json:"isTyping"`
}
