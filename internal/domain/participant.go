package domain

import "time"

// Participant 表示用户在某个房间内的成员资格记录。
// 每个 (room, user) 对至多一行；Language 是用户为该房间单独选择的语言，
// 可以与其全局 PreferredLanguage 不同。
type Participant struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"uniqueIndex:idx_room_user;not null"` // 与 UserID 组成联合唯一索引
	UserID    uint      `gorm:"uniqueIndex:idx_room_user;not null"`
	Language  string    `gorm:"size:8;not null"` // 该成员在此房间内的语言代码
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"` // 关联用户，查询参与者列表时预加载
}
