package presence_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kunal0586/LangoLink/internal/presence"
)

func TestRegistry_OnlineLifecycle(t *testing.T) {
	r := presence.NewRegistry()

	assert.False(t, r.IsOnline(1), "初始状态下用户应离线")

	// 同一用户的两个连接
	r.MarkOnline(1, 100)
	r.MarkOnline(1, 101)
	assert.True(t, r.IsOnline(1))

	// 断开一个连接后仍在线
	r.MarkOffline(1, 100)
	assert.True(t, r.IsOnline(1), "还有活跃连接时用户应保持在线")

	// 最后一个连接断开后离线
	r.MarkOffline(1, 101)
	assert.False(t, r.IsOnline(1))
}

func TestRegistry_MarkOnline_Idempotent(t *testing.T) {
	r := presence.NewRegistry()

	r.MarkOnline(1, 100)
	r.MarkOnline(1, 100)

	r.MarkOffline(1, 100)
	assert.False(t, r.IsOnline(1), "重复标记同一连接不应产生多余计数")
}

func TestRegistry_MarkOffline_UnknownIsNoop(t *testing.T) {
	r := presence.NewRegistry()

	// 从未标记过的条目，移除应无害
	r.MarkOffline(9, 900)
	r.RecordRoomLeave(900, 5)

	assert.False(t, r.IsOnline(9))
	assert.Empty(t, r.RoomsOf(900))
}

func TestRegistry_RoomMembershipTracking(t *testing.T) {
	r := presence.NewRegistry()

	r.RecordRoomJoin(100, 1)
	r.RecordRoomJoin(100, 2)
	r.RecordRoomJoin(100, 2) // 重复加入幂等

	rooms := r.RoomsOf(100)
	assert.ElementsMatch(t, []uint{1, 2}, rooms)

	r.RecordRoomLeave(100, 1)
	assert.ElementsMatch(t, []uint{2}, r.RoomsOf(100))

	r.RecordRoomLeave(100, 2)
	assert.Empty(t, r.RoomsOf(100))
}

func TestRegistry_OnlineMembersOf(t *testing.T) {
	r := presence.NewRegistry()

	r.MarkOnline(1, 100)
	r.MarkOnline(3, 300)
	// 用户 2 是参与者但不在线；用户 4 在线但不是参与者

	r.MarkOnline(4, 400)

	online := r.OnlineMembersOf(7, []uint{1, 2, 3})

	assert.ElementsMatch(t, []uint{1, 3}, online)
	assert.NotContains(t, online, uint(4), "非参与者不应出现在结果中")
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	// 并发读写不应触发竞态 (go test -race)
	r := presence.NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := uint64(n)
			userID := uint(n % 5)
			r.MarkOnline(userID, connID)
			r.RecordRoomJoin(connID, uint(n%3))
			r.RoomsOf(connID)
			r.OnlineMembersOf(1, []uint{0, 1, 2, 3, 4})
			r.RecordRoomLeave(connID, uint(n%3))
			r.MarkOffline(userID, connID)
		}(i)
	}
	wg.Wait()

	for userID := uint(0); userID < 5; userID++ {
		assert.False(t, r.IsOnline(userID), "所有连接清理后不应有用户在线")
	}
}
