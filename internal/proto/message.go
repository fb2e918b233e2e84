package proto

// ChatFrame is the JSON shape of a chat message on the wire. Inbound frames
// carry at minimum ChatID (the peer's identity) and Content; a client-supplied
// Sender is ignored and overwritten with the authenticated identity. Outbound
// frames additionally carry the persistence-assigned ID as text and a server
// timestamp.
type ChatFrame struct {
	ID      string `json:"id,omitempty"`
	ChatID  string `json:"chatId"`
	Sender  string `json:"sender,omitempty"`
	Content string `json:"content"`
	TS      int64  `json:"ts,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// ErrorFrame is sent to a client when its own frame could not be handled.
type ErrorFrame struct {
	Error *Error `json:"error"`
}

// PresenceStatus is the JSON shape of a presence record. LastSeen is RFC3339
// or null while the identity is online without recorded activity.
type PresenceStatus struct {
	Online   bool    `json:"online"`
	LastSeen *string `json:"last_seen"`
}
