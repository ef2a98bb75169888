package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/presence"
	"github.com/kunal0586/LangoLink/internal/repository"
	"github.com/kunal0586/LangoLink/internal/service"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Hub 维护活跃连接集合并实现会话协议。
// 事件在各连接的读循环中同步分发，同一连接上的事件严格按到达顺序处理，
// 不同连接之间天然并发，共享状态由锁保护。
type Hub struct {
	// 房间的在线连接集合 map[roomID]map[*Client]bool
	rooms   map[uint]map[*Client]bool
	roomsMu sync.RWMutex

	presence    *presence.Registry
	userRepo    repository.UserRepository
	roomService *service.RoomService
	chatService *service.ChatService
}

// NewHub 创建并返回一个新的 Hub 实例。
func NewHub(reg *presence.Registry, userRepo repository.UserRepository, roomService *service.RoomService, chatService *service.ChatService) *Hub {
	if reg == nil || userRepo == nil || roomService == nil || chatService == nil {
		panic("Hub dependencies cannot be nil")
	}
	return &Hub{
		rooms:       make(map[uint]map[*Client]bool),
		presence:    reg,
		userRepo:    userRepo,
		roomService: roomService,
		chatService: chatService,
	}
}

// Dispatch 解析并处理一条来自客户端的入站事件。
func (h *Hub) Dispatch(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(c, "malformed event")
		return
	}

	switch env.Type {
	case EventAuthenticate:
		var p AuthenticatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "malformed authenticate payload")
			return
		}
		h.handleAuthenticate(c, p)
	case EventJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "malformed join_room payload")
			return
		}
		h.handleJoinRoom(c, p)
	case EventLeaveRoom:
		var p LeaveRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "malformed leave_room payload")
			return
		}
		h.handleLeaveRoom(c, p)
	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "malformed send_message payload")
			return
		}
		h.handleSendMessage(c, p)
	case EventTyping:
		var p TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "malformed typing payload")
			return
		}
		h.handleTyping(c, p)
	default:
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "event_type": env.Type}).Warn("Received unknown event type")
		h.sendError(c, "unknown event type")
	}
}

// handleAuthenticate 处理连接级认证。
// 认证只影响当前连接，同一用户的其他连接需要各自认证。
func (h *Hub) handleAuthenticate(c *Client, p AuthenticatePayload) {
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": p.UserID})

	if c.authenticated {
		h.sendError(c, "connection already authenticated")
		return
	}

	user, err := h.userRepo.FindByID(context.Background(), p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Authentication failed: User not found")
		} else {
			logCtx.WithError(err).Error("Database error during websocket authentication")
		}
		h.sendError(c, service.ErrAuthenticationFailed.Error())
		return
	}

	c.userID = user.ID
	c.displayName = user.DisplayName
	c.authenticated = true
	h.presence.MarkOnline(user.ID, c.id)

	h.sendTo(c, AuthenticatedEvent{
		Type:        EventAuthenticated,
		UserID:      user.ID,
		DisplayName: user.DisplayName,
	})
	logCtx.Info("WebSocket connection authenticated")
}

// handleJoinRoom 把连接加入房间的在线组。
// 只有房间参与者才能加入；重复加入是幂等的，会重新下发在线名单。
func (h *Hub) handleJoinRoom(c *Client, p JoinRoomPayload) {
	if !c.authenticated {
		h.sendError(c, "authentication required")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID, "room_id": p.RoomID})
	ctx := context.Background()

	room, err := h.roomService.FindRoomByID(ctx, p.RoomID)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	if !room.IsActive {
		h.sendError(c, service.ErrRoomDisabled.Error())
		return
	}

	isMember, err := h.roomService.IsMember(ctx, p.RoomID, c.userID)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	if !isMember {
		logCtx.Warn("Join denied: User is not a room participant")
		h.sendError(c, service.ErrNotRoomMember.Error())
		return
	}

	h.roomsMu.Lock()
	group, ok := h.rooms[p.RoomID]
	if !ok {
		group = make(map[*Client]bool)
		h.rooms[p.RoomID] = group
	}
	alreadyJoined := group[c]
	group[c] = true
	h.roomsMu.Unlock()

	h.presence.RecordRoomJoin(c.id, p.RoomID)

	// 重复加入不再重复通知其他人，只重发在线名单
	if !alreadyJoined {
		h.broadcastToRoom(p.RoomID, PresenceEvent{
			Type:        EventUserJoined,
			UserID:      c.userID,
			DisplayName: c.displayName,
			RoomID:      p.RoomID,
		}, c)
	}

	h.broadcastOnlineUsers(ctx, p.RoomID, nil)
	logCtx.Info("Client joined room group")
}

// handleLeaveRoom 把连接移出房间的在线组并通知其他人。
func (h *Hub) handleLeaveRoom(c *Client, p LeaveRoomPayload) {
	if !c.authenticated {
		h.sendError(c, "authentication required")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID, "room_id": p.RoomID})

	h.roomsMu.Lock()
	group, ok := h.rooms[p.RoomID]
	wasJoined := ok && group[c]
	if wasJoined {
		delete(group, c)
		if len(group) == 0 {
			delete(h.rooms, p.RoomID)
		}
	}
	h.roomsMu.Unlock()

	if !wasJoined {
		h.sendError(c, "not in room")
		return
	}

	h.presence.RecordRoomLeave(c.id, p.RoomID)

	h.broadcastToRoom(p.RoomID, PresenceEvent{
		Type:        EventUserLeft,
		UserID:      c.userID,
		DisplayName: c.displayName,
		RoomID:      p.RoomID,
	}, nil)
	logCtx.Info("Client left room group")
}

// handleSendMessage 处理消息发送：翻译并持久化成功后才广播。
// 持久化失败时只给发送者回一个 error 事件，不会广播半成品消息。
func (h *Hub) handleSendMessage(c *Client, p SendMessagePayload) {
	if !c.authenticated {
		h.sendError(c, "authentication required")
		return
	}
	if !h.isInRoomGroup(c, p.RoomID) {
		h.sendError(c, "join the room before sending messages")
		return
	}

	message, sender, result, err := h.chatService.SendMessage(context.Background(), p.RoomID, c.userID, p.Content, p.MessageType)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	event := NewMessageEvent{
		Type: EventNewMessage,
		Message: MessagePayload{
			ID:                message.ID,
			RoomID:            message.RoomID,
			Content:           message.Content,
			MessageType:       message.MessageType,
			TranslatedContent: result.Translations,
			DetectedLanguage:  result.DetectedLanguage,
			CreatedAt:         message.CreatedAt.Unix(),
			Sender:            sender,
		},
		TranslationResult: result,
	}
	// 发送者的所有连接也收到广播，作为投递回执
	h.broadcastToRoom(p.RoomID, event, nil)
}

// handleTyping 把输入状态转发给房间内除发送者外的其他用户。
func (h *Hub) handleTyping(c *Client, p TypingPayload) {
	if !c.authenticated {
		h.sendError(c, "authentication required")
		return
	}
	if !h.isInRoomGroup(c, p.RoomID) {
		h.sendError(c, "join the room before sending typing updates")
		return
	}

	event := TypingEvent{
		Type:        EventUserTyping,
		RoomID:      p.RoomID,
		UserID:      c.userID,
		DisplayName: c.displayName,
		IsTyping:    p.IsTyping,
	}
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal typing event")
		return
	}

	// 排除发送者的全部连接，用户不需要看到自己的输入状态
	h.roomsMu.RLock()
	recipients := make([]*Client, 0, len(h.rooms[p.RoomID]))
	for client := range h.rooms[p.RoomID] {
		if client.userID != c.userID {
			recipients = append(recipients, client)
		}
	}
	h.roomsMu.RUnlock()

	for _, client := range recipients {
		h.trySend(client, data)
	}
}

// handleDisconnect 在连接的读循环退出时执行完整清理。
// 先清 presence 再算在线名单，保证名单里不含刚断开的用户。
func (h *Hub) handleDisconnect(c *Client) {
	defer c.closeSend()

	if !c.authenticated {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID})
	ctx := context.Background()

	joinedRooms := h.presence.RoomsOf(c.id)
	for _, roomID := range joinedRooms {
		h.presence.RecordRoomLeave(c.id, roomID)
	}
	h.presence.MarkOffline(c.userID, c.id)

	for _, roomID := range joinedRooms {
		h.roomsMu.Lock()
		if group, ok := h.rooms[roomID]; ok {
			delete(group, c)
			if len(group) == 0 {
				delete(h.rooms, roomID)
			}
		}
		h.roomsMu.Unlock()

		h.broadcastToRoom(roomID, PresenceEvent{
			Type:        EventUserLeft,
			UserID:      c.userID,
			DisplayName: c.displayName,
			RoomID:      roomID,
		}, nil)
		h.broadcastOnlineUsers(ctx, roomID, nil)
	}
	logCtx.WithField("room_count", len(joinedRooms)).Info("Client disconnect cleanup completed")
}

// --- 广播辅助 ---

// broadcastOnlineUsers 重新计算房间在线名单并广播给房间内的连接。
func (h *Hub) broadcastOnlineUsers(ctx context.Context, roomID uint, except *Client) {
	participants, err := h.roomService.Participants(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to list participants for online users broadcast")
		return
	}

	userIDs := make([]uint, 0, len(participants))
	byID := make(map[uint]domain.UserSummary, len(participants))
	for i := range participants {
		userIDs = append(userIDs, participants[i].UserID)
		byID[participants[i].UserID] = participants[i].User.Summary()
	}

	online := h.presence.OnlineMembersOf(roomID, userIDs)
	users := make([]domain.UserSummary, 0, len(online))
	for _, id := range online {
		users = append(users, byID[id])
	}

	h.broadcastToRoom(roomID, OnlineUsersEvent{
		Type:   EventOnlineUsers,
		RoomID: roomID,
		Users:  users,
	}, except)
}

// broadcastToRoom 把事件发给房间在线组的所有连接，except 不为 nil 时排除该连接。
func (h *Hub) broadcastToRoom(roomID uint, event interface{}, except *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to marshal broadcast event")
		return
	}

	h.roomsMu.RLock()
	recipients := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		if client != except {
			recipients = append(recipients, client)
		}
	}
	h.roomsMu.RUnlock()

	for _, client := range recipients {
		h.trySend(client, data)
	}
}

// isInRoomGroup 判断连接是否在房间的在线组内。
func (h *Hub) isInRoomGroup(c *Client, roomID uint) bool {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	group, ok := h.rooms[roomID]
	return ok && group[c]
}

// sendTo 序列化事件并发给单个连接。
func (h *Hub) sendTo(c *Client, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal event for client")
		return
	}
	h.trySend(c, data)
}

// sendError 给单个连接回一个 error 事件，不广播。
func (h *Hub) sendError(c *Client, message string) {
	h.sendTo(c, ErrorEvent{Type: EventError, Message: message})
}

// sendServiceError 把业务错误映射为 error 事件，未知错误统一兜底。
func (h *Hub) sendServiceError(c *Client, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRoomDisabled),
		errors.Is(err, service.ErrNotRoomMember),
		errors.Is(err, service.ErrInvalidMessage):
		h.sendError(c, err.Error())
	default:
		h.sendError(c, service.ErrInternalServer.Error())
	}
}

// trySend 非阻塞发送，避免单个慢连接拖垮分发。
func (h *Hub) trySend(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).Warn("Client send channel full, dropping event")
	}
}
