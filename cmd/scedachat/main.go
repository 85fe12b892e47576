// Command scedachat is an interactive terminal client for SCEDA-CHAT:
// it prompts for a chat ID, nickname, and passphrase, then joins the
// LAN broadcast room and relays stdin lines as Message PDUs while
// printing received events to stdout (spec §9's CLI driver, mirroring
// main.c's REPL shape).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	_ "go.uber.org/automaxprocs"

	"github.com/scedachat/scedachat/lib/digest"
	"github.com/scedachat/scedachat/lib/events"
	"github.com/scedachat/scedachat/lib/host"
	"github.com/scedachat/scedachat/lib/metrics"
)

var cli struct {
	ChatID     string `help:"Chat room identifier." short:"c"`
	Nickname   string `help:"Nickname to announce to other peers." short:"n"`
	Passphrase string `help:"Shared passphrase; hashed into the 16-byte session key." short:"k"`
	Port       int    `help:"UDP port to use." default:"4412"`
	Metrics    bool   `help:"Enable in-process Prometheus collectors (not exported by this command)."`
}

func main() {
	kong.Parse(&cli,
		kong.Description("A LAN peer-to-peer chat client speaking the SCEDA-CHAT protocol."),
	)

	reader := bufio.NewReader(os.Stdin)
	if cli.ChatID == "" {
		cli.ChatID = prompt(reader, "Chat ID")
	}
	if cli.Nickname == "" {
		cli.Nickname = prompt(reader, "Nickname")
	}
	if cli.Passphrase == "" {
		cli.Passphrase = prompt(reader, "Key")
	}

	keyDigest := digest.Sum([]byte(cli.Passphrase))

	var m *metrics.Metrics
	if cli.Metrics {
		m = metrics.New(cli.ChatID)
	}

	h, err := host.New(host.Config{
		Nickname: cli.Nickname,
		ChatID:   cli.ChatID,
		Key:      keyDigest[:],
		Port:     cli.Port,
	}, host.WithMetrics(m))
	if err != nil {
		fmt.Fprintln(os.Stderr, "scedachat:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := h.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "scedachat:", err)
		os.Exit(1)
	}
	defer h.Destroy()

	go printEvents(h)

	fmt.Println("Begin to chat now!")
	fmt.Println()

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		if err := h.Send(line); err != nil {
			fmt.Fprintln(os.Stderr, "scedachat: send failed:", err)
		}
	}
}

func prompt(r *bufio.Reader, label string) string {
	for {
		fmt.Printf("%s: ", label)
		line, err := r.ReadString('\n')
		if err != nil {
			os.Exit(1)
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			return line
		}
	}
}

var conflictNotified bool

func printEvents(h *host.Host) {
	for ev := range h.Events() {
		switch ev.Kind {
		case events.Hello:
			fmt.Printf("%s has joined the chat!\n", ev.Peer.Nickname)
		case events.Welcome:
			fmt.Printf("%s is online!\n", ev.Peer.Nickname)
		case events.Leave:
			fmt.Printf("%s is offline!\n", ev.Peer.Nickname)
		case events.Message:
			fmt.Printf("%s: %s\n", ev.Peer.Nickname, ev.PDU.Payload)
		case events.MalformedReceived, events.MalformedNotification:
			fmt.Printf("Problem while communicating with %s!\n", ev.Peer.Nickname)
		case events.Conflict:
			if !conflictNotified {
				fmt.Println("Nickname collision detected!")
				conflictNotified = true
			}
		}
	}
}
