package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	SessionID       string       `json:"session_id"`
	Params          EditorParams `json:"params"`
}

// EditorParams are the fixed facts a client needs to lay out its views.
type EditorParams struct {
	ChunkWidth  int    `json:"chunk_width"`
	ChunkHeight int    `json:"chunk_height"`
	Layers      int    `json:"layers"`
	TilePx      int    `json:"tile_px"`
	Center      string `json:"center"`
	Group       uint64 `json:"group"`
}

// Command names carried by ACT messages.
const (
	CmdPaint        = "paint"
	CmdMove         = "move"
	CmdJump         = "jump"
	CmdSave         = "save"
	CmdSaveAll      = "save_all"
	CmdSelect       = "select"
	CmdSwitchSource = "switch_source"
	CmdHover        = "hover"
)

// ACT (client -> server). Exactly the args object matching Cmd is set.
type ActMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ID              string      `json:"id,omitempty"`
	Cmd             string      `json:"cmd"`
	Paint           *PaintArgs  `json:"paint,omitempty"`
	Move            *MoveArgs   `json:"move,omitempty"`
	Jump            *JumpArgs   `json:"jump,omitempty"`
	Select          *SelectArgs `json:"select,omitempty"`
	Source          *SourceArgs `json:"source,omitempty"`
	Hover           *HoverArgs  `json:"hover,omitempty"`
}

type PaintArgs struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Layer int `json:"layer"`
}

type MoveArgs struct {
	Dir string `json:"dir"`
}

type JumpArgs struct {
	X     int32  `json:"x"`
	Y     int32  `json:"y"`
	Group uint64 `json:"group"`
}

type SelectArgs struct {
	StartX int `json:"start_x"`
	StartY int `json:"start_y"`
	EndX   int `json:"end_x"`
	EndY   int `json:"end_y"`
}

type SourceArgs struct {
	Index int `json:"index"`
}

type HoverArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ACK (server -> client) answers one ACT by id.
type AckMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// VIEW (server -> client): the nine-slot neighborhood as sparse cells.
type ViewMsg struct {
	Type   string      `json:"type"`
	Center string      `json:"center"`
	Slots  []SlotCells `json:"slots"`
}

type SlotCells struct {
	Slot  int       `json:"slot"`
	Cells []CellRef `json:"cells,omitempty"`
}

type CellRef struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Layer int    `json:"layer"`
	ID    uint32 `json:"id"`
}

// DIRTY (server -> client): the unsaved chunk keys, for the confirmation
// dialog collaborator.
type DirtyMsg struct {
	Type    string   `json:"type"`
	Unsaved bool     `json:"unsaved"`
	Keys    []string `json:"keys,omitempty"`
}
