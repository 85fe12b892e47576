// Package host implements the SCEDA-CHAT peer engine: a Host binds a
// UDP socket, broadcasts Hello PDUs to discover other hosts on the
// same chat ID, maintains a roster of known peers, and exchanges
// Message/Leave/conflict-notification PDUs with them (spec §5, §9).
package host

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"
	"golang.org/x/time/rate"

	"github.com/scedachat/scedachat/lib/events"
	"github.com/scedachat/scedachat/lib/logger"
	"github.com/scedachat/scedachat/lib/metrics"
)

var l = logger.DefaultLogger.NewFacility("host", "SCEDA-CHAT peer engine")

// DefaultPort is SC_DEFAULT_PORT from the reference implementation.
const DefaultPort = 4412

const maxPDUSize = 4096

const (
	badNotificationBudget = 4
	badNotificationWindow = 600 * time.Second
)

// Config describes the communication session a Host takes part in.
type Config struct {
	Nickname string
	ChatID   string
	Key      []byte // 16 bytes
	Port     int    // 0 means DefaultPort
}

// Option customizes a Host beyond its Config.
type Option func(*Host)

// WithMetrics attaches a metrics.Metrics to the Host; nil (the
// default) disables instrumentation entirely.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Host) { h.metrics = m }
}

// WithEventBuffer sets the buffering of the channel returned by
// Events. The default is 32.
func WithEventBuffer(n int) Option {
	return func(h *Host) { h.eventBuf = n }
}

// WithLimiter overrides the rate limiter used to pace outbound Hello
// re-broadcasts and listener-error retries. The default allows one
// event per 200ms with a burst of 5.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(h *Host) { h.limiter = limiter }
}

type peer struct {
	addr     net.UDPAddr
	nickname string
}

// Host is a single local SCEDA-CHAT client taking part in one chat
// room. The zero value is not usable; construct one with New.
type Host struct {
	nickname string
	chatID   string
	key      []byte

	port          int
	ownAddr       net.UDPAddr
	broadcastAddr net.UDPAddr
	conn          *net.UDPConn

	mu     sync.Mutex
	roster []*peer

	remainingBad     int
	firstBadNotif    time.Time
	badNotifInit     bool

	eventCh  chan events.Event
	eventBuf int

	metrics *metrics.Metrics
	limiter *rate.Limiter

	sup    *suture.Supervisor
	cancel context.CancelFunc
	done   chan struct{}
}

// New validates cfg and constructs a Host. The UDP socket is not
// opened until Start is called.
func New(cfg Config, opts ...Option) (*Host, error) {
	if len(cfg.Key) != 16 {
		return nil, fmt.Errorf("host: key must be 16 bytes, got %d", len(cfg.Key))
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("host: chat ID must not be empty")
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	h := &Host{
		nickname: cfg.Nickname,
		chatID:   cfg.ChatID,
		key:      append([]byte(nil), cfg.Key...),
		port:     port,
		broadcastAddr: net.UDPAddr{
			IP:   net.IPv4bcast,
			Port: port,
		},
		eventBuf: 32,
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.eventCh = make(chan events.Event, h.eventBuf)
	h.remainingBad = badNotificationBudget

	return h, nil
}

// Events returns the channel Host delivers notifications on. The
// caller must keep draining it (or give it enough room with
// WithEventBuffer) for the life of the Host; when the channel is full,
// new events are dropped with a warning rather than queued.
func (h *Host) Events() <-chan events.Event {
	return h.eventCh
}

// Start opens the UDP socket, launches the supervised listener, and
// sends the initial broadcast Hello. It must be called exactly once.
func (h *Host) Start(ctx context.Context) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: h.port})
	if err != nil {
		return fmt.Errorf("host: listen: %w", err)
	}
	if err := enableBroadcast(conn); err != nil {
		conn.Close()
		return fmt.Errorf("host: enable broadcast: %w", err)
	}
	h.conn = conn

	if local, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		h.ownAddr = *local
		if h.ownAddr.IP == nil || h.ownAddr.IP.IsUnspecified() {
			if ip, err := outboundIP(); err == nil {
				h.ownAddr.IP = ip
			}
		}
	}

	sctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})

	h.sup = suture.New("scedachat-host", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   5 * time.Second,
		EventHook: func(e suture.Event) {
			l.Debugln("supervisor event:", e)
		},
	})
	h.sup.Add(&listenerService{host: h})

	go func() {
		defer close(h.done)
		if err := h.sup.Serve(sctx); err != nil && sctx.Err() == nil {
			l.Warnln("supervisor exited:", err)
		}
	}()

	if err := h.Hello(); err != nil {
		l.Warnln("initial hello failed:", err)
	}

	return nil
}

// Destroy sends a Leave PDU to every known peer, stops the listener,
// and closes the socket. The Host must not be used afterward.
func (h *Host) Destroy() error {
	h.mu.Lock()
	roster := append([]*peer(nil), h.roster...)
	h.mu.Unlock()

	for _, p := range roster {
		if err := h.sendLeave(p.addr); err != nil {
			l.Debugln("leave notification to", p.addr, "failed:", err)
		}
	}

	if h.cancel != nil {
		h.cancel()
		<-h.done
	}
	if h.conn != nil {
		return h.conn.Close()
	}
	return nil
}

func (h *Host) emit(e events.Event) {
	select {
	case h.eventCh <- e:
	default:
		l.Warnln("event channel full, dropping", e.Kind)
	}
}

func outboundIP() (net.IP, error) {
	conn, err := net.Dial("udp4", "198.18.0.1:1")
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP, nil
}
