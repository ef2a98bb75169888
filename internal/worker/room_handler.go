package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/kunal0586/LangoLink/internal/repository"
	"github.com/kunal0586/LangoLink/internal/tasks"
)

// RoomMaintenanceHandler 处理房间活跃度相关的后台任务。
type RoomMaintenanceHandler struct {
	roomRepo  repository.RoomRepository
	stateRepo repository.StateRepository
	maxIdle   time.Duration
}

// NewRoomMaintenanceHandler 创建 Handler 实例
func NewRoomMaintenanceHandler(roomRepo repository.RoomRepository, stateRepo repository.StateRepository, maxIdle time.Duration) *RoomMaintenanceHandler {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomMaintenanceHandler")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for RoomMaintenanceHandler")
	}
	if maxIdle <= 0 {
		maxIdle = 72 * time.Hour
	}
	return &RoomMaintenanceHandler{
		roomRepo:  roomRepo,
		stateRepo: stateRepo,
		maxIdle:   maxIdle,
	}
}

// ProcessTouchTask 处理 room:touch 任务，把房间最后活跃时间写回数据库。
func (h *RoomMaintenanceHandler) ProcessTouchTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.RoomTouchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal room touch payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	logCtx := logrus.WithFields(logrus.Fields{"task_type": t.Type(), "room_id": payload.RoomID})

	if err := h.roomRepo.TouchLastActive(ctx, payload.RoomID, payload.At); err != nil {
		logCtx.WithError(err).Error("Failed to touch room last active time")
		return fmt.Errorf("failed to touch room %d: %w", payload.RoomID, err)
	}

	logCtx.Debug("Room touch task processed successfully")
	return nil
}

// ProcessSweepTask 处理周期性的 room:sweep 任务。
// 从活跃度 ZSET 找出超过阈值未活跃的房间，停用后从 ZSET 移除。
func (h *RoomMaintenanceHandler) ProcessSweepTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())

	maxIdle := h.maxIdle
	var payload tasks.RoomSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err == nil && payload.MaxIdle > 0 {
			maxIdle = payload.MaxIdle
		}
	}

	cutoff := time.Now().Add(-maxIdle)
	staleIDs, err := h.stateRepo.StaleRooms(ctx, cutoff)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list stale rooms")
		return fmt.Errorf("failed to list stale rooms: %w", err)
	}
	if len(staleIDs) == 0 {
		logCtx.Debug("No stale rooms found, sweep complete")
		return nil
	}

	disabled, err := h.roomRepo.DisableRooms(ctx, staleIDs)
	if err != nil {
		logCtx.WithError(err).Error("Failed to disable stale rooms")
		return fmt.Errorf("failed to disable stale rooms: %w", err)
	}

	if err := h.stateRepo.ForgetRooms(ctx, staleIDs); err != nil {
		// ZSET 清理失败不影响下一轮清扫，失败只记日志
		logCtx.WithError(err).Warn("Failed to remove swept rooms from activity set")
	}

	logCtx.WithFields(logrus.Fields{"stale_count": len(staleIDs), "disabled": disabled}).Info("Room sweep task completed")
	return nil
}
