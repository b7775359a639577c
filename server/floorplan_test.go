package server

import (
	"strings"
	"testing"
)

const validPlanJSON = `{
  "entryRoom": "lobby",
  "rooms": [
    {
      "id": "lobby",
      "roomType": "FOYER",
      "width": 6,
      "length": 8,
      "entry": { "x": 4, "y": 3 },
      "entryDirection": "downleft",
      "mapElements": [ { "x": 1, "y": 1, "w": 2, "h": 1 } ],
      "npcs": [ { "id": "npc-guide", "name": "Guide", "x": 6, "y": 4 } ],
      "doors": [
        {
          "id": "to-hall",
          "name": "Main Hall",
          "mapPosition": { "x": -1, "y": 2 },
          "enterPositions": [ { "x": 0, "y": 2 } ],
          "target": { "room": "hall", "x": 3, "y": 0 },
          "directionOnExit": "downright",
          "open": true
        },
        {
          "id": "keynote",
          "doorType": "lecture",
          "mapPosition": { "x": 8, "y": 2 },
          "enterPositions": [ { "x": 7, "y": 2 } ]
        }
      ]
    },
    { "id": "hall", "width": 5, "length": 5, "entry": { "x": 2, "y": 2 } }
  ]
}`

func TestParseFloorPlanValid(t *testing.T) {
	fp, err := ParseFloorPlan([]byte(validPlanJSON))
	if err != nil {
		t.Fatalf("ParseFloorPlan = %v, want nil", err)
	}
	if fp.EntryRoom != "lobby" || len(fp.Rooms) != 2 {
		t.Fatalf("plan = entry %q, %d rooms, want lobby with 2 rooms", fp.EntryRoom, len(fp.Rooms))
	}

	rooms, err := BuildRooms(fp, DefaultConfig())
	if err != nil {
		t.Fatalf("BuildRooms = %v, want nil", err)
	}
	lobby := rooms["lobby"]
	if lobby == nil {
		t.Fatalf("lobby not built")
	}
	// 静态元素栅格化为 SOLID
	if lobby.occ.StateAt(1, 1) != CellSolid || lobby.occ.StateAt(2, 1) != CellSolid {
		t.Fatalf("map element footprint not rasterized as solid")
	}
	// NPC 落位即占格
	if who, ok := lobby.occ.OccupantAt(6, 4); !ok || who != "npc:npc-guide" {
		t.Fatalf("npc cell occupant = %q,%v, want npc:npc-guide", who, ok)
	}
	if len(lobby.doors) != 2 {
		t.Fatalf("lobby doors = %d, want 2", len(lobby.doors))
	}
	if lobby.doors[1].Type != DoorLecture {
		t.Fatalf("keynote door type = %v, want lecture", lobby.doors[1].Type)
	}
}

func TestParseFloorPlanSchemaRejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing entryRoom", `{"rooms":[{"id":"a","width":5,"length":5,"entry":{"x":0,"y":0}}]}`},
		{"no rooms", `{"entryRoom":"a","rooms":[]}`},
		{"zero width", `{"entryRoom":"a","rooms":[{"id":"a","width":0,"length":5,"entry":{"x":0,"y":0}}]}`},
		{"bad direction", `{"entryRoom":"a","rooms":[{"id":"a","width":5,"length":5,"entry":{"x":0,"y":0},"entryDirection":"north"}]}`},
		{"door without enterPositions", `{"entryRoom":"a","rooms":[{"id":"a","width":5,"length":5,"entry":{"x":0,"y":0},
			"doors":[{"id":"d","mapPosition":{"x":-1,"y":0},"enterPositions":[]}]}]}`},
		{"not json", `{"entryRoom":`},
	}
	for _, tc := range cases {
		if _, err := ParseFloorPlan([]byte(tc.doc)); err == nil {
			t.Fatalf("%s: ParseFloorPlan = nil, want error", tc.name)
		}
	}
}

func buildPlanExpectError(t *testing.T, fp *FloorPlan, wantSub string) {
	t.Helper()
	_, err := BuildRooms(fp, DefaultConfig())
	if err == nil {
		t.Fatalf("BuildRooms = nil, want error containing %q", wantSub)
	}
	if !strings.Contains(err.Error(), wantSub) {
		t.Fatalf("BuildRooms error = %q, want it to mention %q", err, wantSub)
	}
}

func TestBuildRoomsSemanticRejections(t *testing.T) {
	base := func() *FloorPlan {
		fp, err := ParseFloorPlan([]byte(validPlanJSON))
		if err != nil {
			t.Fatalf("ParseFloorPlan = %v", err)
		}
		return fp
	}

	t.Run("standard door without target", func(t *testing.T) {
		fp := base()
		fp.Rooms[0].Doors[0].Target = nil
		buildPlanExpectError(t, fp, "without target")
	})
	t.Run("standard door without exit direction", func(t *testing.T) {
		fp := base()
		fp.Rooms[0].Doors[0].DirectionOnExit = ""
		buildPlanExpectError(t, fp, "directionOnExit")
	})
	t.Run("door targets unknown room", func(t *testing.T) {
		fp := base()
		fp.Rooms[0].Doors[0].Target.Room = "nowhere"
		buildPlanExpectError(t, fp, "not defined")
	})
	t.Run("door targets solid cell", func(t *testing.T) {
		fp := base()
		fp.Rooms[1].MapElements = []RectDef{{X: 3, Y: 0, W: 1, H: 1}}
		buildPlanExpectError(t, fp, "solid or off-grid")
	})
	t.Run("door targets off-grid cell", func(t *testing.T) {
		fp := base()
		fp.Rooms[0].Doors[0].Target.X = 99
		buildPlanExpectError(t, fp, "solid or off-grid")
	})
	t.Run("entry room missing", func(t *testing.T) {
		fp := base()
		fp.EntryRoom = "nowhere"
		buildPlanExpectError(t, fp, "entry room")
	})
	t.Run("entry cell solid", func(t *testing.T) {
		fp := base()
		fp.Rooms[0].MapElements = append(fp.Rooms[0].MapElements, RectDef{X: 4, Y: 3, W: 1, H: 1})
		buildPlanExpectError(t, fp, "entry cell")
	})
	t.Run("duplicate room id", func(t *testing.T) {
		fp := base()
		fp.Rooms = append(fp.Rooms, fp.Rooms[1])
		buildPlanExpectError(t, fp, "duplicate room id")
	})
	t.Run("npc on solid cell", func(t *testing.T) {
		fp := base()
		fp.Rooms[0].NPCs[0].X, fp.Rooms[0].NPCs[0].Y = 1, 1
		buildPlanExpectError(t, fp, "npc")
	})
}
