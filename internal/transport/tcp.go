// Package transport provides the TCP channel the session driver runs on.
// It owns dialing, deadlines, and the message-terminator framing of the
// receive path; retry and reconnection policy belong to the caller.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sipcheck/internal/sip"
)

var (
	ErrAddressRequired = errors.New("transport: address required")
	ErrNotConnected    = errors.New("transport: not connected")
)

type Config struct {
	Address        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

func (c Config) WithDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 15 * time.Second
	}
	return c
}

// TCP is a synchronous request/response channel over one socket. Receive
// reads up to the message terminator and parses; partial trailing data means
// the peer is broken, not this client.
type TCP struct {
	cfg    Config
	conn   net.Conn
	reader *bufio.Reader
}

func New(cfg Config) (*TCP, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	return &TCP{cfg: cfg.WithDefaults()}, nil
}

func (t *TCP) Connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: t.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.cfg.Address)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", t.cfg.Address, err)
	}
	t.conn = conn
	t.reader = bufio.NewReader(conn)
	log.Debug().Str("addr", t.cfg.Address).Msg("transport connected")
	return nil
}

func (t *TCP) Send(ctx context.Context, msg *sip.Message) error {
	if t.conn == nil {
		return ErrNotConnected
	}
	wire, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := t.conn.SetWriteDeadline(deadline(ctx, t.cfg.WriteTimeout)); err != nil {
		return err
	}
	if _, err := t.conn.Write([]byte(wire)); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	log.Debug().Str("code", msg.Code).Int("bytes", len(wire)).Msg("sent")
	return nil
}

func (t *TCP) Receive(ctx context.Context) (*sip.Message, error) {
	if t.conn == nil {
		return nil, ErrNotConnected
	}
	if err := t.conn.SetReadDeadline(deadline(ctx, t.cfg.ReadTimeout)); err != nil {
		return nil, err
	}
	raw, err := t.reader.ReadString(sip.MessageTerminator)
	if err != nil {
		return nil, fmt.Errorf("transport: read: %w", err)
	}
	// some servers frame responses as <msg>\r\n; a stray leading newline
	// from the previous message is not part of this one
	raw = strings.TrimLeft(raw, "\n")
	msg, err := sip.Parse(raw)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("code", msg.Code).Int("bytes", len(raw)).Msg("received")
	return msg, nil
}

// Close releases the socket. Safe to call more than once and before Connect.
func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	return err
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		d = ctxDeadline
	}
	return d
}
