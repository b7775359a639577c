package server

import "fmt"

// CellState 单元格占用状态
type CellState int

const (
	CellFree     CellState = iota
	CellSolid              // 静态地图元素（墙/实物），构建后不可变
	CellOccupied           // 有参会者或 NPC 正站在此格
)

// OccupationMap 房间的占用表：x ∈ [0,length)，y ∈ [0,width)
// 网格外的门格（x=-1 / x=length）不在表内，只能经门转移进出，
// 对它们的 Claim 由门路径跳过，Vacate 为无操作
type OccupationMap struct {
	length int // x 方向格数
	width  int // y 方向格数
	cells  [][]CellState
	who    [][]string // 占用者 id，仅 CellOccupied 有效
}

// NewOccupationMap 创建全 FREE 的占用表
func NewOccupationMap(length, width int) *OccupationMap {
	cells := make([][]CellState, length)
	who := make([][]string, length)
	for x := 0; x < length; x++ {
		cells[x] = make([]CellState, width)
		who[x] = make([]string, width)
	}
	return &OccupationMap{length: length, width: width, cells: cells, who: who}
}

// InBounds 判断坐标是否落在网格内
func (m *OccupationMap) InBounds(x, y int) bool {
	return x >= 0 && x < m.length && y >= 0 && y < m.width
}

// IsFree 网格内且为 FREE 才可经普通行走进入
func (m *OccupationMap) IsFree(x, y int) bool {
	return m.InBounds(x, y) && m.cells[x][y] == CellFree
}

// StateAt 返回单元格状态；网格外视作 SOLID（不可自由行走）
func (m *OccupationMap) StateAt(x, y int) CellState {
	if !m.InBounds(x, y) {
		return CellSolid
	}
	return m.cells[x][y]
}

// OccupantAt 返回占用者 id（仅 CellOccupied 时有值）
func (m *OccupationMap) OccupantAt(x, y int) (string, bool) {
	if !m.InBounds(x, y) || m.cells[x][y] != CellOccupied {
		return "", false
	}
	return m.who[x][y], true
}

// MarkSolid 构建期栅格化静态元素的占地范围；SOLID 一经标记不再清除
func (m *OccupationMap) MarkSolid(x, y, w, h int) error {
	if w < 1 || h < 1 || !m.InBounds(x, y) || !m.InBounds(x+w-1, y+h-1) {
		return fmt.Errorf("%w: solid footprint (%d,%d) %dx%d", ErrOutOfBounds, x, y, w, h)
	}
	for ix := x; ix < x+w; ix++ {
		for iy := y; iy < y+h; iy++ {
			m.cells[ix][iy] = CellSolid
			m.who[ix][iy] = ""
		}
	}
	return nil
}

// Claim 占用一格；非 FREE 返回 ErrCellOccupied，越界返回 ErrOutOfBounds
func (m *OccupationMap) Claim(x, y int, occupant string) error {
	if !m.InBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}
	if m.cells[x][y] != CellFree {
		return fmt.Errorf("%w: (%d,%d)", ErrCellOccupied, x, y)
	}
	m.cells[x][y] = CellOccupied
	m.who[x][y] = occupant
	return nil
}

// Vacate 释放一格；已 FREE、越界或 SOLID 时为无操作（容忍重复断线事件）
func (m *OccupationMap) Vacate(x, y int) {
	if !m.InBounds(x, y) || m.cells[x][y] != CellOccupied {
		return
	}
	m.cells[x][y] = CellFree
	m.who[x][y] = ""
}
