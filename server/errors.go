package server

import "errors"

// 可用 errors.Is 判别的错误分类：
// Validation（仅拒绝单条请求）、Conflict（状态不变，可回发拒绝通知）、
// Configuration（楼层图作者错误，仅该次转移失败）、Lifecycle（静默丢弃）
var (
	// Validation
	ErrBadDirection = errors.New("bad direction")

	// Conflict
	ErrOutOfBounds        = errors.New("position out of bounds")
	ErrCellOccupied       = errors.New("cell occupied")
	ErrBlocked            = errors.New("move blocked")
	ErrNotAtDoor          = errors.New("not at a door enter position")
	ErrDoorClosed         = errors.New("door closed")
	ErrLectureDoor        = errors.New("lecture door not usable for grid transition")
	ErrTargetCellOccupied = errors.New("target cell occupied")
	ErrEntryCellBlocked   = errors.New("entry cell blocked")

	// Configuration
	ErrBadDoorTarget = errors.New("door target misconfigured")

	// Lifecycle
	ErrUnknownRoom        = errors.New("unknown room")
	ErrUnknownDoor        = errors.New("unknown door")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrUnknownChat        = errors.New("unknown chat")
)

// 线上协议中的拒绝原因码（door_denied.reason）
const (
	ReasonNotAtDoor      = "E_NOT_AT_DOOR"
	ReasonDoorClosed     = "E_DOOR_CLOSED"
	ReasonTargetOccupied = "E_TARGET_OCCUPIED"
	ReasonLectureDoor    = "E_LECTURE_DOOR"
	ReasonBadTarget      = "E_BAD_TARGET"
	ReasonUnknownDoor    = "E_UNKNOWN_DOOR"
)

// DenyReason 将门转移错误映射为原因码；非门类错误返回空串
func DenyReason(err error) string {
	switch {
	case errors.Is(err, ErrNotAtDoor):
		return ReasonNotAtDoor
	case errors.Is(err, ErrDoorClosed):
		return ReasonDoorClosed
	case errors.Is(err, ErrTargetCellOccupied):
		return ReasonTargetOccupied
	case errors.Is(err, ErrLectureDoor):
		return ReasonLectureDoor
	case errors.Is(err, ErrBadDoorTarget):
		return ReasonBadTarget
	case errors.Is(err, ErrUnknownDoor):
		return ReasonUnknownDoor
	default:
		return ""
	}
}
