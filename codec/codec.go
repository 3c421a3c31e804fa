// Package codec defines the wire types exchanged with a BAS (Browser
// Automation Studio) process and their transport encoding.
//
// A message is canonical JSON transformed to lowercase hex over its UTF-8
// bytes, so the files carrying it stay unambiguous ASCII on every platform.
// Outbound commands are hex-encoded once. Inbound responses are hex-encoded
// twice: once by the scenario code inside BAS when it produces the payload,
// and once more by the SendMessageToHelper transport. DecodeLine therefore
// inverts the mapping exactly twice; lines that survive only one inversion
// (such as the initial handshake BAS writes on connect) are not responses.
package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"github.com/mkoval/basbridge/errors"
)

// Command is a single request to the host. Exactly one command occupies the
// outbound file at a time; writing a new one replaces the previous content.
type Command struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
	Data any    `json:"data"`
}

// Response is one decoded line of the inbound file. Data is kept raw; the
// caller knows the shape for the command it sent.
type Response struct {
	ID   int64           `json:"id"`
	Data json.RawMessage `json:"data"`
}

// EncodeCommand serializes a command to the single-line form written to the
// outbound file. HTML escaping is disabled so the full character set of the
// payload survives the round trip unchanged.
func EncodeCommand(cmd Command) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cmd); err != nil {
		return "", errors.Wrapf(err, "marshal command %q", cmd.Type)
	}
	return hexEncode(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DecodeLine parses one line of the inbound file as a doubly hex-encoded
// response. A non-nil error means the line is not a valid response; callers
// treat that as noise, not as a failure.
func DecodeLine(line string) (*Response, error) {
	inner, err := hexDecode(line)
	if err != nil {
		return nil, errors.Wrapf(err, "outer hex layer")
	}
	payload, err := hexDecode(string(inner))
	if err != nil {
		return nil, errors.Wrapf(err, "inner hex layer")
	}
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, errors.Wrapf(err, "parse response JSON")
	}
	return &resp, nil
}

// EncodeResponse produces an inbound line exactly as the host writes one:
// JSON, hex-encoded twice. It exists for tests and host simulators; the
// bridge itself never writes the inbound file.
func EncodeResponse(id int64, data any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Response{ID: id, Data: mustRaw(data)}); err != nil {
		return "", errors.Wrapf(err, "marshal response %d", id)
	}
	return hexEncode([]byte(hexEncode(bytes.TrimRight(buf.Bytes(), "\n")))), nil
}

func mustRaw(data any) json.RawMessage {
	if data == nil {
		return json.RawMessage("null")
	}
	if raw, ok := data.(json.RawMessage); ok {
		return raw
	}
	b, err := json.Marshal(data)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
