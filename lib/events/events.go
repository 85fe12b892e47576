// Package events defines the Host-to-application notification surface
// for SCEDA-CHAT. The reference client delivers these through seven
// function pointers on SCHost (sc.h's on_message/on_hello/...); here
// they are a single sum type delivered over a channel, which composes
// more naturally with context cancellation and select-based consumers
// (spec §9 design notes).
package events

import "github.com/scedachat/scedachat/lib/protocol"

// Kind identifies which SCHost callback an Event corresponds to.
type Kind int

const (
	Hello Kind = iota
	Welcome
	Leave
	Message
	MalformedReceived
	MalformedNotification
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Hello:
		return "Hello"
	case Welcome:
		return "Welcome"
	case Leave:
		return "Leave"
	case Message:
		return "Message"
	case MalformedReceived:
		return "MalformedReceived"
	case MalformedNotification:
		return "MalformedNotification"
	case Conflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// PeerInfo identifies a peer: its nickname, chat ID, and UDP endpoint.
// Mirrors SCInfo from sc.h.
type PeerInfo struct {
	Nickname string
	ChatID   string
	Addr     string // host:port, dotted-quad
}

// Event is delivered on a Host's event channel for every notable
// occurrence a caller might want to react to. Only the fields relevant
// to Kind are populated; the rest are left at their zero value.
type Event struct {
	Kind Kind

	// Peer is who the event is about: the sender for Hello/Welcome/
	// Leave/Message/MalformedReceived/MalformedNotification, and the
	// notifier (possibly zero) for Conflict.
	Peer PeerInfo

	// PDU carries the received PDU for Message.
	PDU *protocol.PDU

	// RawFrame carries the offending bytes for MalformedReceived and
	// MalformedNotification.
	RawFrame []byte

	// Rival is the peer a nickname collision was detected against,
	// populated only for Conflict.
	Rival PeerInfo
}
