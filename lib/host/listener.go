package host

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/scedachat/scedachat/lib/encoding"
	"github.com/scedachat/scedachat/lib/events"
	"github.com/scedachat/scedachat/lib/protocol"
)

// listenerService is the suture.Service that owns the Host's read
// loop. It is restarted by the supervisor on transient socket errors,
// pacing retries through h.limiter instead of the reference
// implementation's un-paced detached thread (spec's DOMAIN STACK
// rationale for golang.org/x/time/rate).
type listenerService struct {
	host *Host
}

func (s *listenerService) String() string { return "scedachat-listener" }

func (s *listenerService) Serve(ctx context.Context) error {
	h := s.host
	buf := make([]byte, maxPDUSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		h.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, sender, err := h.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			if err := h.limiter.Wait(ctx); err != nil {
				return nil
			}
			return err // let suture restart us
		}

		if sender.IP.Equal(h.ownAddr.IP) {
			continue
		}
		if !protocol.CheckChatID(buf[:n], h.chatID) {
			continue
		}

		frame := append([]byte(nil), buf[:n]...)
		h.handleFrame(frame, *sender)
	}
}

func (h *Host) handleFrame(frame []byte, sender net.UDPAddr) {
	pdu, err := protocol.Deserialize(frame, h.key)
	if err != nil {
		h.handleMalformed(frame, sender)
		return
	}
	if h.metrics != nil {
		h.metrics.CountReceived(pdu.Type.String())
	}

	nickname, _ := h.GetNickname(sender)
	senderInfo := events.PeerInfo{Nickname: nickname, ChatID: h.chatID, Addr: sender.String()}

	switch pdu.Type {
	case protocol.TypeHello:
		p := &peer{addr: sender, nickname: string(pdu.Payload)}
		h.addPeer(p, true)
		h.emit(events.Event{Kind: events.Hello, Peer: toPeerInfo(p, h.chatID)})
		h.replyWelcome(sender)

	case protocol.TypeWelcome:
		p := &peer{addr: sender, nickname: string(pdu.Payload)}
		h.addPeer(p, true)
		h.emit(events.Event{Kind: events.Welcome, Peer: toPeerInfo(p, h.chatID)})

	case protocol.TypeLeave:
		h.removePeer(sender)
		h.emit(events.Event{Kind: events.Leave, Peer: senderInfo})

	case protocol.TypeMessage:
		h.emit(events.Event{Kind: events.Message, Peer: senderInfo, PDU: pdu})

	case protocol.TypeMalformed:
		h.emit(events.Event{Kind: events.MalformedNotification, Peer: senderInfo, RawFrame: pdu.Payload})

	case protocol.TypeConflict:
		rivalAddr := net.UDPAddr{IP: net.ParseIP(string(pdu.Payload)), Port: h.port}
		rivalNick, _ := h.GetNickname(rivalAddr)
		h.emit(events.Event{
			Kind:  events.Conflict,
			Peer:  senderInfo,
			Rival: events.PeerInfo{Nickname: rivalNick, ChatID: h.chatID, Addr: rivalAddr.String()},
		})
	}
}

// handleMalformed implements the bad-PDU rate limiter: a BAD
// notification is sent back for up to 4 malformed frames, after which
// no further BAD replies are sent until 600 seconds have passed since
// the last one (spec §9 / sc.c's listener()). Every malformed frame,
// replied to or not, still produces a MalformedReceived event.
func (h *Host) handleMalformed(frame []byte, sender net.UDPAddr) {
	h.mu.Lock()
	now := time.Now()
	if !h.badNotifInit || now.Sub(h.firstBadNotif) > badNotificationWindow {
		h.remainingBad = badNotificationBudget
		h.badNotifInit = true
	}
	h.remainingBad--
	sendNotification := h.remainingBad > -1
	if sendNotification {
		h.firstBadNotif = now
	}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.CountMalformed()
	}

	if sendNotification {
		pdu := &protocol.PDU{ChatID: h.chatID, Type: protocol.TypeMalformed, Encoding: encoding.ASCII}
		if err := h.manualSend(sender, pdu); err != nil {
			l.Debugln("malformed notification to", sender, "failed:", err)
		}
	}

	h.emit(events.Event{
		Kind:     events.MalformedReceived,
		Peer:     events.PeerInfo{ChatID: h.chatID, Addr: sender.String()},
		RawFrame: frame,
	})
}

func (h *Host) replyWelcome(to net.UDPAddr) {
	pdu := &protocol.PDU{
		ChatID:   h.chatID,
		Type:     protocol.TypeWelcome,
		Encoding: encoding.ASCII,
		Payload:  []byte(h.nickname),
	}
	if err := h.manualSend(to, pdu); err != nil {
		l.Debugln("welcome to", to, "failed:", err)
	}
}
