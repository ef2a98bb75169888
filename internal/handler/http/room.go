package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kunal0586/LangoLink/internal/service"
)

// RoomHandler 封装了与房间管理相关的 HTTP 处理逻辑
type RoomHandler struct {
	roomService *service.RoomService
	chatService *service.ChatService
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService, chatService *service.ChatService) *RoomHandler {
	return &RoomHandler{roomService: roomService, chatService: chatService}
}

// CreateRoomRequest 定义创建房间请求的结构体
type CreateRoomRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=100"`
	Languages []string `json:"languages" binding:"omitempty,dive,min=2,max=8"`
}

// CreateRoomResponse 定义创建房间成功的响应结构体
type CreateRoomResponse struct {
	Message  string `json:"message"`
	RoomID   uint   `json:"room_id"`
	JoinCode string `json:"join_code"`
}

// CreateRoom 处理创建新房间的请求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.CreateRoom: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: room name is required"})
		return
	}

	newRoom, err := h.roomService.CreateRoom(c.Request.Context(), userID, req.Name, req.Languages)
	if err != nil {
		logCtx.WithError(err).Error("Handler.CreateRoom: Failed to create room via service")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithFields(logrus.Fields{"room_id": newRoom.ID, "join_code": newRoom.JoinCode}).Info("Handler.CreateRoom: Room created successfully")
	c.JSON(http.StatusOK, CreateRoomResponse{
		Message:  "Room created successfully",
		RoomID:   newRoom.ID,
		JoinCode: newRoom.JoinCode,
	})
}

// JoinRoomRequest 定义加入房间请求的结构体
type JoinRoomRequest struct {
	JoinCode string `json:"join_code" binding:"required,len=6"`
	Language string `json:"language" binding:"omitempty,min=2,max=8"`
}

// JoinRoomResponse 定义加入房间成功的响应结构体
type JoinRoomResponse struct {
	Message  string `json:"message"`
	RoomID   uint   `json:"room_id"`
	RoomName string `json:"room_name"`
	Language string `json:"language"`
}

// JoinRoom 处理用户通过加入码加入房间的请求
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.JoinRoom: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: join_code is required"})
		return
	}
	logCtx = logCtx.WithField("join_code", req.JoinCode)

	room, participant, err := h.roomService.JoinByCode(c.Request.Context(), userID, req.JoinCode, req.Language)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.JoinRoom: Failed to join room via service")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("room_id", room.ID).Info("Handler.JoinRoom: User joined room successfully")
	c.JSON(http.StatusOK, JoinRoomResponse{
		Message:  "Joined room successfully",
		RoomID:   room.ID,
		RoomName: room.Name,
		Language: participant.Language,
	})
}

// ParticipantInfo 是参与者列表响应里的单条记录
type ParticipantInfo struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
}

// Participants 返回房间的参与者列表，仅房间成员可见
func (h *RoomHandler) Participants(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	if ok, err := h.roomService.IsMember(c.Request.Context(), roomID, userID); err != nil {
		HandleServiceError(c, err)
		return
	} else if !ok {
		logCtx.Warn("Handler.Participants: Requester is not a room member")
		ErrorResponse(c, http.StatusForbidden, service.ErrNotRoomMember.Error())
		return
	}

	participants, err := h.roomService.Participants(c.Request.Context(), roomID)
	if err != nil {
		logCtx.WithError(err).Error("Handler.Participants: Failed to list participants")
		HandleServiceError(c, err)
		return
	}

	infos := make([]ParticipantInfo, 0, len(participants))
	for i := range participants {
		infos = append(infos, ParticipantInfo{
			UserID:      participants[i].UserID,
			DisplayName: participants[i].User.DisplayName,
			Language:    participants[i].Language,
		})
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "participants": infos})
}

// Messages 返回房间最近的消息历史，仅房间成员可见
func (h *RoomHandler) Messages(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			ErrorResponse(c, http.StatusBadRequest, "Invalid limit: must be between 1 and 200")
			return
		}
		limit = parsed
	}

	if ok, err := h.chatService.IsMember(c.Request.Context(), roomID, userID); err != nil {
		HandleServiceError(c, err)
		return
	} else if !ok {
		logCtx.Warn("Handler.Messages: Requester is not a room member")
		ErrorResponse(c, http.StatusForbidden, service.ErrNotRoomMember.Error())
		return
	}

	messages, err := h.chatService.History(c.Request.Context(), roomID, limit)
	if err != nil {
		logCtx.WithError(err).Error("Handler.Messages: Failed to load message history")
		HandleServiceError(c, err)
		return
	}

	type messageInfo struct {
		ID               uint              `json:"id"`
		SenderID         uint              `json:"sender_id"`
		Content          string            `json:"content"`
		MessageType      string            `json:"message_type"`
		DetectedLanguage string            `json:"detected_language"`
		Translations     map[string]string `json:"translations"`
		Confidence       float64           `json:"confidence"`
		CreatedAt        int64             `json:"created_at"`
	}
	infos := make([]messageInfo, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		translations, err := m.ParseTranslations()
		if err != nil {
			logCtx.WithError(err).WithField("message_id", m.ID).Warn("Handler.Messages: Corrupt translations payload, returning empty map")
			translations = map[string]string{}
		}
		infos = append(infos, messageInfo{
			ID:               m.ID,
			SenderID:         m.SenderID,
			Content:          m.Content,
			MessageType:      m.MessageType,
			DetectedLanguage: m.DetectedLanguage,
			Translations:     translations,
			Confidence:       m.Confidence,
			CreatedAt:        m.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "messages": infos})
}

// DisableRoom 停用房间，仅创建者可操作
func (h *RoomHandler) DisableRoom(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	if err := h.roomService.DisableRoom(c.Request.Context(), roomID, userID); err != nil {
		logCtx.WithError(err).Warn("Handler.DisableRoom: Failed to disable room")
		HandleServiceError(c, err)
		return
	}

	logCtx.Info("Handler.DisableRoom: Room disabled successfully")
	c.JSON(http.StatusOK, gin.H{"message": "Room disabled successfully", "room_id": roomID})
}

// roomIDParam 解析 URL 中的 :roomId 路径参数
func roomIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("roomId")
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid room ID")
		return 0, false
	}
	return uint(parsed), true
}
