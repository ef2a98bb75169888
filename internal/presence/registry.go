// Package presence 维护进程内的在线状态：哪个用户有哪些活跃连接，
// 以及每个连接加入了哪些房间。纯内存状态，无 I/O，生命周期与进程一致。
// Registry 通过构造注入，不使用包级单例，便于单元测试。
package presence

import "sync"

// Registry 维护 用户 -> 连接集合 与 连接 -> 房间集合 两个索引。
// 所有方法都在锁内完成纯内存集合操作，不与任何 I/O 交错，
// 因此对调用方来说每次更新都是原子的。
type Registry struct {
	mu sync.Mutex
	// 用户 ID -> 该用户的活跃连接 ID 集合；集合非空即在线
	conns map[uint]map[uint64]struct{}
	// 连接 ID -> 该连接已加入的房间 ID 集合，用于断线清理的反向索引
	rooms map[uint64]map[uint]struct{}
}

// NewRegistry 创建空的 Registry。
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uint]map[uint64]struct{}),
		rooms: make(map[uint64]map[uint]struct{}),
	}
}

// MarkOnline 将 connID 加入用户的连接集合。幂等。
func (r *Registry) MarkOnline(userID uint, connID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[uint64]struct{})
		r.conns[userID] = set
	}
	set[connID] = struct{}{}
}

// MarkOffline 将 connID 从用户的连接集合移除；
// 集合变空时用户转为完全离线。对不存在的条目是无害的空操作。
func (r *Registry) MarkOffline(userID uint, connID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

// RecordRoomJoin 在反向索引中记录连接加入了房间。幂等。
func (r *Registry) RecordRoomJoin(connID uint64, roomID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.rooms[connID]
	if !ok {
		set = make(map[uint]struct{})
		r.rooms[connID] = set
	}
	set[roomID] = struct{}{}
}

// RecordRoomLeave 从反向索引中移除连接与房间的关联。
func (r *Registry) RecordRoomLeave(connID uint64, roomID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.rooms[connID]
	if !ok {
		return
	}
	delete(set, roomID)
	if len(set) == 0 {
		delete(r.rooms, connID)
	}
}

// RoomsOf 返回连接当前加入的房间 ID 切片 (副本)。
func (r *Registry) RoomsOf(connID uint64) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.rooms[connID]
	if !ok {
		return nil
	}
	roomIDs := make([]uint, 0, len(set))
	for roomID := range set {
		roomIDs = append(roomIDs, roomID)
	}
	return roomIDs
}

// IsOnline 判断用户是否至少有一个活跃连接。
func (r *Registry) IsOnline(userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID]) > 0
}

// OnlineMembersOf 将参与者集合与当前在线用户求交集，返回在线成员的用户 ID。
// O(participants)，房间规模是人类聊天量级，可以接受。
// 返回值永远是 participantUserIDs 的子集。
func (r *Registry) OnlineMembersOf(roomID uint, participantUserIDs []uint) []uint {
	_ = roomID // 目前仅靠参与者集合求交集；保留参数以匹配按房间查询的调用面
	r.mu.Lock()
	defer r.mu.Unlock()
	online := make([]uint, 0, len(participantUserIDs))
	for _, userID := range participantUserIDs {
		if len(r.conns[userID]) > 0 {
			online = append(online, userID)
		}
	}
	return online
}
