package bas

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mkoval/basbridge/codec"
	"github.com/mkoval/basbridge/ipc"
)

// wireCommand mirrors codec.Command with the payload kept raw, so handlers
// can decode into whatever shape they assert on.
type wireCommand struct {
	Type string          `json:"type"`
	ID   int64           `json:"id"`
	Data json.RawMessage `json:"data"`
}

// fakeHost simulates the BAS side of the file convention: it polls the
// outbound file and appends doubly encoded responses to the inbound file,
// dispatching on command type.
type fakeHost struct {
	t  *testing.T
	ch *ipc.Channel

	mu        sync.Mutex
	handlers  map[string]func(data json.RawMessage) any
	commands  []wireCommand
	responded map[int64]bool

	stop chan struct{}
	done chan struct{}
}

func newTestPair(t *testing.T) (*Client, *fakeHost) {
	t.Helper()
	ch := ipc.NewChannel(t.TempDir(), 5151, nil)
	ch.SetPollInterval(2 * time.Millisecond)
	client := NewClient(ch, nil)
	client.SetTimeouts(500*time.Millisecond, 500*time.Millisecond, 500*time.Millisecond)

	h := &fakeHost{
		t:         t,
		ch:        ch,
		handlers:  make(map[string]func(data json.RawMessage) any),
		responded: make(map[int64]bool),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go h.run()
	t.Cleanup(func() {
		close(h.stop)
		<-h.done
	})
	return client, h
}

func (h *fakeHost) handle(cmdType string, fn func(data json.RawMessage) any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[cmdType] = fn
}

// handleOK registers a handler returning a fixed payload.
func (h *fakeHost) handleOK(cmdType string, payload any) {
	h.handle(cmdType, func(json.RawMessage) any { return payload })
}

func (h *fakeHost) run() {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			return
		case <-time.After(time.Millisecond):
		}

		content, err := os.ReadFile(h.ch.OutboundPath())
		if err != nil {
			continue
		}
		raw, err := hex.DecodeString(string(content))
		if err != nil {
			continue
		}
		var cmd wireCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			continue
		}

		h.mu.Lock()
		if h.responded[cmd.ID] {
			h.mu.Unlock()
			continue
		}
		h.responded[cmd.ID] = true
		h.commands = append(h.commands, cmd)
		fn := h.handlers[cmd.Type]
		h.mu.Unlock()

		var payload any
		if fn != nil {
			payload = fn(cmd.Data)
		} else {
			payload = map[string]any{"success": false, "error": "unhandled command: " + cmd.Type}
		}
		line, err := codec.EncodeResponse(cmd.ID, payload)
		if err != nil {
			continue
		}
		f, err := os.OpenFile(h.ch.InboundPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			continue
		}
		f.WriteString(line + "\n")
		f.Close()
	}
}

// commandsOfType returns the payloads of every received command of a type,
// in arrival order.
func (h *fakeHost) commandsOfType(cmdType string) []json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []json.RawMessage
	for _, cmd := range h.commands {
		if cmd.Type == cmdType {
			out = append(out, cmd.Data)
		}
	}
	return out
}
