package realtime

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Minimal STOMP 1.2 framing, just enough to CONNECT, SUBSCRIBE to the
// per-user queue and receive MESSAGE frames. Bodies are JSON envelopes.

const (
	cmdConnect   = "CONNECT"
	cmdConnected = "CONNECTED"
	cmdSubscribe = "SUBSCRIBE"
	cmdMessage   = "MESSAGE"
	cmdError     = "ERROR"
)

type Frame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// Marshal renders the frame with a NUL terminator. Headers are emitted in
// sorted order so output is deterministic.
func (f *Frame) Marshal() []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')
	keys := make([]string, 0, len(f.Headers))
	for k := range f.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(escapeHeader(k))
		b.WriteByte(':')
		b.WriteString(escapeHeader(f.Headers[k]))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// ParseFrame decodes one frame. Leading EOLs (server heartbeats) and the
// trailing NUL are tolerated.
func ParseFrame(raw []byte) (*Frame, error) {
	raw = bytes.TrimLeft(raw, "\r\n")
	raw = bytes.TrimRight(raw, "\x00")
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty frame")
	}

	head, body, found := bytes.Cut(raw, []byte("\n\n"))
	if !found {
		head, body, found = bytes.Cut(raw, []byte("\r\n\r\n"))
		if !found {
			return nil, fmt.Errorf("frame has no header terminator")
		}
	}

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	f := &Frame{Command: strings.TrimSpace(lines[0]), Headers: make(map[string]string)}
	if f.Command == "" {
		return nil, fmt.Errorf("frame has no command")
	}
	for _, line := range lines[1:] {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q", line)
		}
		k = unescapeHeader(k)
		// for repeated headers STOMP keeps the first occurrence
		if _, seen := f.Headers[k]; !seen {
			f.Headers[k] = unescapeHeader(v)
		}
	}
	f.Body = body
	return f, nil
}

var headerEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r", `\r`,
	"\n", `\n`,
	":", `\c`,
)

func escapeHeader(s string) string { return headerEscaper.Replace(s) }

func unescapeHeader(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'c':
			b.WriteByte(':')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
