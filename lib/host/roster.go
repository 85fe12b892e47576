package host

import (
	"net"

	"github.com/scedachat/scedachat/lib/encoding"
	"github.com/scedachat/scedachat/lib/events"
	"github.com/scedachat/scedachat/lib/protocol"
)

// addPeer upserts p into the roster by IP address.
//
// The reference implementation's schost_add compares addresses with
// "!=" where it means "==", so every peer with an IP different from
// an existing entry is (incorrectly) treated as already known, and an
// already-known peer returning is (incorrectly) treated as new. This
// inverts both the nickname-refresh path and the append path. Here
// the comparison is corrected: an existing entry is matched by equal
// IP, its nickname is refreshed, and the returned isNew reflects
// whether p was genuinely new to the roster.
func (h *Host) addPeer(p *peer, notifyConflict bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	isNew := true
	for _, existing := range h.roster {
		if existing.addr.IP.Equal(p.addr.IP) {
			isNew = false
			existing.nickname = p.nickname
		}
	}

	if isNew && notifyConflict {
		for _, existing := range h.roster {
			if existing.nickname == p.nickname {
				h.notifyConflict(existing.addr, p.addr)
				h.notifyConflict(p.addr, existing.addr)
			}
		}
	}

	if notifyConflict && p.nickname == h.nickname {
		h.emit(events.Event{Kind: events.Conflict, Rival: toPeerInfo(p, h.chatID)})
		h.notifyConflict(p.addr, h.ownAddr)
	}

	if isNew {
		h.roster = append(h.roster, p)
		if h.metrics != nil {
			h.metrics.SetRosterSize(len(h.roster))
		}
	}

	return isNew
}

// notifyConflict sends a CNF PDU to recipient naming rival's address,
// the way schost_add does for every pairing it finds sharing a
// nickname.
func (h *Host) notifyConflict(recipient, rival net.UDPAddr) {
	pdu := &protocol.PDU{
		ChatID:   h.chatID,
		Type:     protocol.TypeConflict,
		Encoding: encoding.ASCII,
		Payload:  []byte(rival.IP.String()),
	}
	if err := h.manualSend(recipient, pdu); err != nil {
		l.Debugln("conflict notification to", recipient, "failed:", err)
	}
}

// removePeer drops the roster entry for addr, if any, returning
// whether one was found.
func (h *Host) removePeer(addr net.UDPAddr) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, existing := range h.roster {
		if existing.addr.IP.Equal(addr.IP) {
			h.roster = append(h.roster[:i], h.roster[i+1:]...)
			if h.metrics != nil {
				h.metrics.SetRosterSize(len(h.roster))
			}
			return true
		}
	}
	return false
}

// GetNickname returns the nickname associated with addr in the
// roster, if any.
func (h *Host) GetNickname(addr net.UDPAddr) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, existing := range h.roster {
		if existing.addr.IP.Equal(addr.IP) {
			return existing.nickname, true
		}
	}
	return "", false
}

// Roster returns a snapshot of currently known peers.
func (h *Host) Roster() []events.PeerInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]events.PeerInfo, len(h.roster))
	for i, p := range h.roster {
		out[i] = toPeerInfo(p, h.chatID)
	}
	return out
}

func toPeerInfo(p *peer, chatID string) events.PeerInfo {
	return events.PeerInfo{
		Nickname: p.nickname,
		ChatID:   chatID,
		Addr:     p.addr.String(),
	}
}
