package host

import (
	"context"
	"fmt"
	"net"

	"github.com/scedachat/scedachat/lib/encoding"
	"github.com/scedachat/scedachat/lib/protocol"
)

// manualSend serializes pdu and writes it to address, mirroring
// schost_manual_send.
func (h *Host) manualSend(address net.UDPAddr, pdu *protocol.PDU) error {
	frame, err := protocol.Serialize(pdu, h.key)
	if err != nil {
		return fmt.Errorf("host: serialize: %w", err)
	}
	if _, err := h.conn.WriteToUDP(frame, &address); err != nil {
		return fmt.Errorf("host: write: %w", err)
	}
	if h.metrics != nil {
		h.metrics.CountSent(pdu.Type.String())
	}
	return nil
}

// ManualSend sends an arbitrary PDU to address, for callers that need
// more control than Send/SpartanSend/Hello provide.
func (h *Host) ManualSend(address net.UDPAddr, pdu *protocol.PDU) error {
	return h.manualSend(address, pdu)
}

// Hello clears the roster and broadcasts a fresh Hello PDU, the way
// schost_hello does (and as schost_start does once, at startup).
func (h *Host) Hello() error {
	h.mu.Lock()
	h.roster = nil
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.SetRosterSize(0)
	}

	pdu := &protocol.PDU{
		ChatID:   h.chatID,
		Type:     protocol.TypeHello,
		Encoding: encoding.ASCII,
		Payload:  []byte(h.nickname),
	}
	if err := h.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("host: hello: %w", err)
	}
	return h.manualSend(h.broadcastAddr, pdu)
}

// unicastSend wraps message in a Message PDU and sends it to address.
func (h *Host) unicastSend(address net.UDPAddr, message string) error {
	pdu := &protocol.PDU{
		ChatID:   h.chatID,
		Type:     protocol.TypeMessage,
		Encoding: encoding.ASCII,
		Payload:  []byte(message),
	}
	return h.manualSend(address, pdu)
}

// Send delivers message as a unicast Message PDU to every peer
// currently in the roster.
func (h *Host) Send(message string) error {
	h.mu.Lock()
	roster := append([]*peer(nil), h.roster...)
	h.mu.Unlock()

	var firstErr error
	for _, p := range roster {
		if err := h.unicastSend(p.addr, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SpartanSend broadcasts message as a single Message PDU, reaching
// hosts that may not yet be in the roster (and saving the per-peer
// unicast fan-out Send does).
func (h *Host) SpartanSend(message string) error {
	return h.unicastSend(h.broadcastAddr, message)
}

func (h *Host) sendLeave(address net.UDPAddr) error {
	pdu := &protocol.PDU{ChatID: h.chatID, Type: protocol.TypeLeave, Encoding: encoding.ASCII}
	return h.manualSend(address, pdu)
}
