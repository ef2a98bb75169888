package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量
const (
	TypeRoomTouch = "room:touch" // 更新房间最后活跃时间
	TypeRoomSweep = "room:sweep" // 周期性停用长期不活跃的房间
)

// 队列名称常量
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// RoomTouchPayload 是 room:touch 任务的负载。
type RoomTouchPayload struct {
	RoomID uint      `json:"room_id"`
	At     time.Time `json:"at"`
}

// NewRoomTouchTask 创建一个更新房间活跃时间的任务。
func NewRoomTouchTask(roomID uint, at time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(RoomTouchPayload{RoomID: roomID, At: at})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room touch payload: %w", err)
	}
	return asynq.NewTask(TypeRoomTouch, payload), nil
}

// RoomSweepPayload 是 room:sweep 任务的负载。
type RoomSweepPayload struct {
	MaxIdle time.Duration `json:"max_idle"`
}

// NewRoomSweepTask 创建一个清扫不活跃房间的任务，通常由调度器周期性入队。
func NewRoomSweepTask(maxIdle time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(RoomSweepPayload{MaxIdle: maxIdle})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room sweep payload: %w", err)
	}
	return asynq.NewTask(TypeRoomSweep, payload), nil
}
