package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 楼层图 JSON 的结构校验（加载期拒绝畸形数据，避免运行期转移途中才失败）
const floorPlanSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["entryRoom", "rooms"],
  "properties": {
    "entryRoom": { "type": "string", "minLength": 1 },
    "rooms": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "width", "length", "entry"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "roomType": { "type": "string" },
          "width": { "type": "integer", "minimum": 1 },
          "length": { "type": "integer", "minimum": 1 },
          "entry": { "$ref": "#/$defs/cell" },
          "entryDirection": { "$ref": "#/$defs/direction" },
          "mapElements": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["x", "y"],
              "properties": {
                "x": { "type": "integer" },
                "y": { "type": "integer" },
                "w": { "type": "integer", "minimum": 1 },
                "h": { "type": "integer", "minimum": 1 }
              }
            }
          },
          "npcs": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "x", "y"],
              "properties": {
                "id": { "type": "string", "minLength": 1 },
                "name": { "type": "string" },
                "x": { "type": "integer" },
                "y": { "type": "integer" },
                "direction": { "$ref": "#/$defs/direction" }
              }
            }
          },
          "doors": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "mapPosition", "enterPositions"],
              "properties": {
                "id": { "type": "string", "minLength": 1 },
                "doorType": { "enum": ["standard", "lecture"] },
                "name": { "type": "string" },
                "mapPosition": { "$ref": "#/$defs/cell" },
                "enterPositions": {
                  "type": "array",
                  "minItems": 1,
                  "items": { "$ref": "#/$defs/cell" }
                },
                "target": {
                  "type": "object",
                  "required": ["room", "x", "y"],
                  "properties": {
                    "room": { "type": "string", "minLength": 1 },
                    "x": { "type": "integer" },
                    "y": { "type": "integer" }
                  }
                },
                "directionOnExit": { "$ref": "#/$defs/direction" },
                "open": { "type": "boolean" },
                "closedMessage": { "type": "string" },
                "unlockCode": { "type": "string" }
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "cell": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": { "type": "integer" },
        "y": { "type": "integer" }
      }
    },
    "direction": { "enum": ["upleft", "upright", "downleft", "downright"] }
  }
}`

// ---- 楼层图文件结构 ----

type FloorPlan struct {
	EntryRoom string    `json:"entryRoom"`
	Rooms     []RoomDef `json:"rooms"`
}

type CellDef struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type RectDef struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type NPCDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
}

type TargetDef struct {
	Room string `json:"room"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type DoorDef struct {
	ID              string     `json:"id"`
	DoorType        string     `json:"doorType"`
	Name            string     `json:"name"`
	MapPosition     CellDef    `json:"mapPosition"`
	EnterPositions  []CellDef  `json:"enterPositions"`
	Target          *TargetDef `json:"target"`
	DirectionOnExit string     `json:"directionOnExit"`
	Open            bool       `json:"open"`
	ClosedMessage   string     `json:"closedMessage"`
	UnlockCode      string     `json:"unlockCode"`
}

type RoomDef struct {
	ID             string    `json:"id"`
	RoomType       string    `json:"roomType"`
	Width          int       `json:"width"`
	Length         int       `json:"length"`
	Entry          CellDef   `json:"entry"`
	EntryDirection string    `json:"entryDirection"`
	MapElements    []RectDef `json:"mapElements"`
	NPCs           []NPCDef  `json:"npcs"`
	Doors          []DoorDef `json:"doors"`
}

// LoadFloorPlan 读取并校验楼层图文件
func LoadFloorPlan(path string) (*FloorPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFloorPlan(raw)
}

// ParseFloorPlan 先做 Schema 结构校验，再反序列化为强类型
func ParseFloorPlan(raw []byte) (*FloorPlan, error) {
	sch, err := jsonschema.CompileString("floorplan.schema.json", floorPlanSchema)
	if err != nil {
		return nil, fmt.Errorf("compile floorplan schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("floorplan: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("floorplan: %w", err)
	}
	var fp FloorPlan
	if err := json.Unmarshal(raw, &fp); err != nil {
		return nil, fmt.Errorf("floorplan: %w", err)
	}
	return &fp, nil
}

// parseDirOr 解析可选方向字段，空串取缺省值
func parseDirOr(s string, def Direction) (Direction, error) {
	if s == "" {
		return def, nil
	}
	return ParseDirection(s)
}

// BuildRooms 依据楼层图构建全部房间（含占用表栅格化、NPC 落位与门语义校验）
func BuildRooms(fp *FloorPlan, cfg Config) (map[string]*Room, error) {
	rooms := make(map[string]*Room, len(fp.Rooms))

	// 第一遍：建房间、栅格化静态元素、放置 NPC
	for _, rd := range fp.Rooms {
		if _, dup := rooms[rd.ID]; dup {
			return nil, fmt.Errorf("floorplan: duplicate room id %q", rd.ID)
		}
		entryDir, err := parseDirOr(rd.EntryDirection, DirDownRight)
		if err != nil {
			return nil, fmt.Errorf("floorplan: room %q: %w", rd.ID, err)
		}
		room := newRoom(rd.ID, rd.RoomType, rd.Length, rd.Width, rd.Entry.X, rd.Entry.Y, entryDir, cfg)
		for _, el := range rd.MapElements {
			w, h := el.W, el.H
			if w == 0 {
				w = 1
			}
			if h == 0 {
				h = 1
			}
			if err := room.occ.MarkSolid(el.X, el.Y, w, h); err != nil {
				return nil, fmt.Errorf("floorplan: room %q: %w", rd.ID, err)
			}
		}
		for _, nd := range rd.NPCs {
			dir, err := parseDirOr(nd.Direction, DirDownLeft)
			if err != nil {
				return nil, fmt.Errorf("floorplan: room %q npc %q: %w", rd.ID, nd.ID, err)
			}
			npc := &NPC{ID: nd.ID, Name: nd.Name, X: nd.X, Y: nd.Y, Dir: dir}
			if err := room.occ.Claim(nd.X, nd.Y, "npc:"+nd.ID); err != nil {
				return nil, fmt.Errorf("floorplan: room %q npc %q: %w", rd.ID, nd.ID, err)
			}
			room.npcs = append(room.npcs, npc)
		}
		rooms[rd.ID] = room
	}

	if _, ok := rooms[fp.EntryRoom]; !ok {
		return nil, fmt.Errorf("floorplan: entry room %q not defined", fp.EntryRoom)
	}

	// 第二遍：门语义校验（目标房间存在、目标格在网格内且非 SOLID）
	for _, rd := range fp.Rooms {
		room := rooms[rd.ID]
		for _, dd := range rd.Doors {
			door, err := buildDoor(rd.ID, dd, rooms)
			if err != nil {
				return nil, err
			}
			room.doors = append(room.doors, door)
		}
		// 入口格不可为 SOLID（可为 NPC 占用以外的格；NPC 长占入口视为作者错误）
		if !room.occ.InBounds(room.EntryX, room.EntryY) ||
			room.occ.StateAt(room.EntryX, room.EntryY) != CellFree {
			return nil, fmt.Errorf("floorplan: room %q entry cell (%d,%d) is not free",
				rd.ID, room.EntryX, room.EntryY)
		}
	}
	return rooms, nil
}

func buildDoor(roomID string, dd DoorDef, rooms map[string]*Room) (*Door, error) {
	door := &Door{
		ID:            dd.ID,
		Name:          dd.Name,
		MapX:          dd.MapPosition.X,
		MapY:          dd.MapPosition.Y,
		Open:          dd.Open,
		ClosedMessage: dd.ClosedMessage,
		UnlockCode:    dd.UnlockCode,
	}
	for _, ep := range dd.EnterPositions {
		door.EnterPositions = append(door.EnterPositions, [2]int{ep.X, ep.Y})
	}
	if dd.DoorType == "lecture" {
		door.Type = DoorLecture
		return door, nil
	}
	door.Type = DoorStandard
	// 标准门必须带目的地与出门朝向
	if dd.Target == nil {
		return nil, fmt.Errorf("floorplan: room %q door %q: standard door without target", roomID, dd.ID)
	}
	if dd.DirectionOnExit == "" {
		return nil, fmt.Errorf("floorplan: room %q door %q: standard door without directionOnExit", roomID, dd.ID)
	}
	dir, err := ParseDirection(dd.DirectionOnExit)
	if err != nil {
		return nil, fmt.Errorf("floorplan: room %q door %q: %w", roomID, dd.ID, err)
	}
	target, ok := rooms[dd.Target.Room]
	if !ok {
		return nil, fmt.Errorf("floorplan: room %q door %q: target room %q not defined",
			roomID, dd.ID, dd.Target.Room)
	}
	if !target.occ.InBounds(dd.Target.X, dd.Target.Y) ||
		target.occ.StateAt(dd.Target.X, dd.Target.Y) == CellSolid {
		return nil, fmt.Errorf("floorplan: room %q door %q: target cell %s(%d,%d) is solid or off-grid",
			roomID, dd.ID, dd.Target.Room, dd.Target.X, dd.Target.Y)
	}
	door.TargetRoom = dd.Target.Room
	door.TargetX = dd.Target.X
	door.TargetY = dd.Target.Y
	door.DirectionOnExit = dir
	return door, nil
}
