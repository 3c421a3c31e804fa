// Package ipc implements the file-based request/response channel to a BAS
// process. BAS exposes no socket or library API; the only way in is a pair
// of plain-text files under its helperipc directory, written on one side
// and polled on the other.
package ipc

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mkoval/basbridge/codec"
	"github.com/mkoval/basbridge/errors"
)

const (
	// DefaultPollInterval bounds the latency the bridge adds on top of the
	// host's own response time. Tens of milliseconds keeps the worst case
	// small without busy-spinning; tune via SetPollInterval if needed.
	DefaultPollInterval = 50 * time.Millisecond

	outboundPrefix = "helper-to-bas"
	inboundPrefix  = "bas-to-helper"
)

// ErrNoResponse reports that the poll window elapsed without a matching
// response. Absence is a first-class outcome, distinct from transport
// failures and from host-reported errors.
var ErrNoResponse = stderrors.New("no response from BAS")

// ErrBusy reports that a request is already in flight on this channel.
// The single outbound file cannot correlate two concurrent commands, so a
// second Call fails fast instead of silently corrupting matching.
var ErrBusy = stderrors.New("channel busy: request already in flight")

// Channel is the conversation with one BAS process, identified by its PID.
// It owns the outbound and inbound file paths and admits one request at a
// time. Construct one per process and share it; there is no global state.
type Channel struct {
	pid          int
	dir          string
	outPath      string
	inPath       string
	pollInterval time.Duration

	// slot is the single-slot admission gate: holding the token means a
	// command is in flight and the inbound file belongs to that request.
	slot   chan struct{}
	nextID atomic.Int64

	logger *zap.Logger
}

// NewChannel creates a channel for the BAS process with the given PID,
// using dir as the helperipc directory. A nil logger disables diagnostics.
func NewChannel(dir string, pid int, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Channel{
		pid:          pid,
		dir:          dir,
		outPath:      filepath.Join(dir, fmt.Sprintf("%s.%d.txt", outboundPrefix, pid)),
		inPath:       filepath.Join(dir, fmt.Sprintf("%s.%d.txt", inboundPrefix, pid)),
		pollInterval: DefaultPollInterval,
		slot:         make(chan struct{}, 1),
		logger:       logger,
	}
	// Monotonic IDs remove the collision risk of random ones, and a random
	// base keeps IDs from a restarted bridge from matching stale responses
	// a previous instance left behind.
	c.nextID.Store(rand.Int63n(1 << 40))
	return c
}

// PID returns the host process identity this channel talks to.
func (c *Channel) PID() int { return c.pid }

// Dir returns the helperipc directory the channel operates in.
func (c *Channel) Dir() string { return c.dir }

// OutboundPath returns the file commands are written to.
func (c *Channel) OutboundPath() string { return c.outPath }

// InboundPath returns the file responses are read from.
func (c *Channel) InboundPath() string { return c.inPath }

// SetPollInterval overrides the inbound poll interval. The right upper
// bound is workload-dependent, so it is a tunable rather than a contract.
func (c *Channel) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// Write encodes the command and replaces the outbound file wholesale. BAS
// reads the whole file; there is no append and no queue.
func (c *Channel) Write(cmd codec.Command) error {
	line, err := codec.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.outPath, []byte(line), 0o644); err != nil {
		return errors.Wrapf(err, "write command %q to %s", cmd.Type, c.outPath)
	}
	return nil
}

// ReadMatching polls the inbound file until a response with the expected ID
// appears or the timeout elapses. The matched response's file is deleted
// best-effort so consumed content does not leak into the next call. Lines
// that fail to decode are noise (BAS writes a handshake line that is not
// doubly encoded) and are examined at most once per call.
func (c *Channel) ReadMatching(expectID int64, timeout time.Duration) (*codec.Response, error) {
	deadline := time.Now().Add(timeout)
	examined := make(map[string]struct{})
	for {
		if resp := c.scanInbound(expectID, examined); resp != nil {
			return resp, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNoResponse
		}
		time.Sleep(c.pollInterval)
	}
}

func (c *Channel) scanInbound(expectID int64, examined map[string]struct{}) *codec.Response {
	content, err := os.ReadFile(c.inPath)
	if err != nil {
		// Not written yet, or the host is mid-replace. Both mean "retry".
		return nil
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, seen := examined[line]; seen {
			continue
		}
		examined[line] = struct{}{}

		resp, err := codec.DecodeLine(line)
		if err != nil {
			c.logger.Debug("skipping undecodable inbound line",
				zap.Int("pid", c.pid), zap.Int("line_len", len(line)))
			continue
		}
		if resp.ID != expectID {
			continue
		}
		if err := os.Remove(c.inPath); err != nil {
			c.logger.Debug("could not delete consumed inbound file",
				zap.String("path", c.inPath), zap.Error(err))
		}
		return resp
	}
	return nil
}

// Call sends a command and awaits its response. It allocates a fresh request
// ID, occupies the channel's single request slot, writes the command, and
// polls off the calling goroutine so ctx cancellation is honored.
//
// On ctx cancellation the in-flight poll is not interrupted: it runs to its
// timeout in the background and keeps the slot until then, because the host
// may still write the stale response and the inbound file must be drained
// before the next command can be correlated. A Call during that window
// returns ErrBusy.
//
// A timeout yields ErrNoResponse; a failed write yields the write error
// immediately. Host-reported failures arrive as ordinary payloads.
func (c *Channel) Call(ctx context.Context, cmdType string, data any, timeout time.Duration) (json.RawMessage, error) {
	select {
	case c.slot <- struct{}{}:
	default:
		return nil, ErrBusy
	}

	id := c.nextID.Add(1)
	if err := c.Write(codec.Command{Type: cmdType, ID: id, Data: data}); err != nil {
		<-c.slot
		return nil, err
	}

	type outcome struct {
		resp *codec.Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := c.ReadMatching(id, timeout)
		done <- outcome{resp, err}
		<-c.slot
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return out.resp.Data, nil
	case <-ctx.Done():
		c.logger.Debug("call abandoned; poll continues to timeout",
			zap.String("type", cmdType), zap.Int64("id", id))
		return nil, ctx.Err()
	}
}

// Ping probes liveness: any response within the timeout counts, whatever
// its payload.
func (c *Channel) Ping(ctx context.Context, timeout time.Duration) bool {
	_, err := c.Call(ctx, "ping", nil, timeout)
	return err == nil
}
