package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrInvalidJoinCode      = errors.New("invalid or expired join code")
	ErrRoomDisabled         = errors.New("room has been disabled")
	ErrNotRoomMember        = errors.New("user is not a member of this room")
	ErrNotRoomCreator       = errors.New("only the room creator can perform this action")
	ErrInvalidMessage       = errors.New("invalid message content or type")
	ErrInternalServer       = errors.New("internal server error")
)
