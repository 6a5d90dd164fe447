// Package protocol defines the JSON messages of the editor's collaborator
// surface: the GUI/input layer drives the core with ACT commands and receives
// VIEW and DIRTY events back.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeAct     = "ACT"
	TypeAck     = "ACK"
	TypeView    = "VIEW"
	TypeDirty   = "DIRTY"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
