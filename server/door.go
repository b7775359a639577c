package server

import "fmt"

// DoorType 门类型：标准门做网格转移；讲座门由独立的日程子系统解析
type DoorType int

const (
	DoorStandard DoorType = iota
	DoorLecture
)

// Door 门描述：构建后不可变（开关与解锁码均来自楼层图）
type Door struct {
	ID   string
	Type DoorType
	Name string

	// 门自身所在格（可为 x=-1 / x=length 的贴墙格）
	MapX int
	MapY int

	// 允许使用该门的站位集合
	EnterPositions [][2]int

	// 标准门的目的地；讲座门无
	TargetRoom      string
	TargetX         int
	TargetY         int
	DirectionOnExit Direction

	Open          bool
	ClosedMessage string
	UnlockCode    string // 为空表示无解锁码
}

// UsableFrom 当前站位是否在该门的合法使用位集合内
func (d *Door) UsableFrom(x, y int) bool {
	for _, p := range d.EnterPositions {
		if p[0] == x && p[1] == y {
			return true
		}
	}
	return false
}

// AtMapPosition 候选格是否正是该门所在格（行走撞门时路由到转移流程）
func (d *Door) AtMapPosition(x, y int) bool {
	return d.MapX == x && d.MapY == y
}

// resolveDoor 在门集合中解析一次转移请求
// doorID 为空时按站位匹配任意门（行走撞门的场景）
// unlocked 回调查询该参会者是否已用解锁码打开过此门
func resolveDoor(doors []*Door, doorID string, x, y int, code string, unlocked func(string) bool) (*Door, error) {
	var d *Door
	for _, cand := range doors {
		if doorID != "" && cand.ID != doorID {
			continue
		}
		if cand.UsableFrom(x, y) {
			d = cand
			break
		}
	}
	if d == nil {
		if doorID != "" && findDoor(doors, doorID) == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDoor, doorID)
		}
		return nil, fmt.Errorf("%w: (%d,%d)", ErrNotAtDoor, x, y)
	}
	if d.Type == DoorLecture {
		return nil, fmt.Errorf("%w: %q", ErrLectureDoor, d.ID)
	}
	if !d.Open {
		ok := unlocked != nil && unlocked(d.ID)
		if !ok && d.UnlockCode != "" && code == d.UnlockCode {
			ok = true
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrDoorClosed, d.ID)
		}
	}
	return d, nil
}

func findDoor(doors []*Door, id string) *Door {
	for _, d := range doors {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// doorAt 返回占据候选格 (x,y) 的门（无则 nil）
func doorAt(doors []*Door, x, y int) *Door {
	for _, d := range doors {
		if d.AtMapPosition(x, y) {
			return d
		}
	}
	return nil
}
