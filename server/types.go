package server

import (
	"encoding/json"

	"github.com/undeconstructed/machi/machi"
)

// TextMessage is chat, relayed to everyone.
type TextMessage struct {
	Who  string `json:"who"`
	Text string `json:"text"`
}

type toSend struct {
	mtype string
	data  interface{}
}

type connectMsg struct {
	User   string
	Client clientBundle
	Rep    chan connectResult
}

type connectResult struct {
	ConnID string
	Err    error
}

type disconnectMsg struct {
	ConnID string
}

type queryStateMsg struct {
	Rep chan machi.GameState
}

type dispatchMsg struct {
	User   string
	Action machi.PlayerAction
	Rep    chan dispatchResult
}

type dispatchResult struct {
	State machi.GameState
	Err   error
}

type textFromUser struct {
	Who  string
	Text string
}

type requestFromUser struct {
	ConnID string
	Who    string
	ID     string
	Cmd    []string
	Body   json.RawMessage
}

type responseToUser struct {
	ID   string
	Body interface{}
}

// clientBundle is one connection. downCh is nil for callers that only ask,
// like gRPC, and never get pushed updates.
type clientBundle struct {
	user   string
	downCh chan interface{}
}
