package server

import "fmt"

// ParticipantID 表示参会者唯一标识（由外部登录子系统认证后下发）
type ParticipantID string

// Direction 朝向（等距视角的四个斜方向）
type Direction int

const (
	DirUpLeft Direction = iota
	DirUpRight
	DirDownLeft
	DirDownRight
)

// 每个方向对应的单位位移（服务端权威解释，客户端坐标仅作对账）
var dirDelta = map[Direction][2]int{
	DirUpLeft:    {-1, 0},
	DirUpRight:   {0, -1},
	DirDownLeft:  {0, 1},
	DirDownRight: {1, 0},
}

var dirNames = map[Direction]string{
	DirUpLeft:    "upleft",
	DirUpRight:   "upright",
	DirDownLeft:  "downleft",
	DirDownRight: "downright",
}

var dirLookup = map[string]Direction{
	"upleft":    DirUpLeft,
	"upright":   DirUpRight,
	"downleft":  DirDownLeft,
	"downright": DirDownRight,
}

func (d Direction) String() string {
	if s, ok := dirNames[d]; ok {
		return s
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Delta 返回该方向的单位位移 (dx, dy)
func (d Direction) Delta() (int, int) {
	v := dirDelta[d]
	return v[0], v[1]
}

// ParseDirection 解析线上协议里的方向字符串
func ParseDirection(s string) (Direction, error) {
	if d, ok := dirLookup[s]; ok {
		return d, nil
	}
	return DirDownRight, fmt.Errorf("%w: %q", ErrBadDirection, s)
}

// Position 网格位置（不可变值：移动时整体替换，不原地修改）
// x=-1 或 x=length 表示贴墙的门格，属于网格外的约定位置
type Position struct {
	RoomID string
	X      int
	Y      int
}

func (p Position) String() string {
	return fmt.Sprintf("%s(%d,%d)", p.RoomID, p.X, p.Y)
}

// Step 返回沿 dir 移动一格后的新位置（原位置不变）
func (p Position) Step(dir Direction) Position {
	dx, dy := dir.Delta()
	return Position{RoomID: p.RoomID, X: p.X + dx, Y: p.Y + dy}
}
