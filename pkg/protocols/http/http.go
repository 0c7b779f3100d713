// Package http decodes HTTP/1.x messages far enough to expose the
// request/status line, headers, and body: it does not interpret bodies by
// content-encoding or chunked transfer-coding. New package (the teacher has
// no HTTP support); the line-oriented scan for the header/body boundary and
// obsolete header-line folding follow RFC 7230 directly, since nothing in
// the retrieval pack parses raw HTTP off the wire.
package http

import (
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/decode"
	"github.com/therealutkarshpriyadarshi/pcapdecode/pkg/perr"
)

// Header is a single decoded header field. Obsolete line-folding
// (continuation lines starting with SP or HTAB) is resolved before this
// point; duplicate header names are combined into one Header with values
// joined by ", ", per RFC 7230 §3.2.2.
type Header struct {
	Name  string
	Value string
}

// Message is the parsed form of an HTTP/1.x request or response. IsRequest
// selects which start-line fields are populated: Method and Target for a
// request, StatusCode and Reason for a response; Version is set for both.
type Message struct {
	IsRequest bool

	Method     string
	Target     string
	StatusCode int
	Reason     string
	Version    string

	Headers []Header
	Body    []byte
}

// Header looks up the combined value for name (case-insensitive), as
// RFC 7230 headers are.
func (m *Message) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Decoder implements decode.Decoder for HTTP/1.x.
type Decoder struct{}

// New returns an HTTP Decoder.
func New() *Decoder { return &Decoder{} }

// Decode scans buf for the start-line, header block, and body. ErrNotApplicable
// is returned when buf holds no blank line ending a header block. A first
// line that is neither a request-line nor a status-line is a structural
// error; a header line with no colon is a structural error when
// ctx.Config.StrictHTTP is set, otherwise that line is skipped and
// decoding continues.
func (d *Decoder) Decode(buf []byte, ctx *decode.Context) (*decode.Layer, error) {
	strict := ctx != nil && ctx.Config.StrictHTTP

	headerEnd, bodyStart, ok := findHeaderBoundary(buf)
	if !ok {
		return nil, decode.ErrNotApplicable
	}

	lines := splitLines(buf[:headerEnd])
	if len(lines) == 0 {
		return nil, decode.ErrNotApplicable
	}

	msg := &Message{}
	if err := parseStartLine(lines[0], msg); err != nil {
		return nil, err
	}

	foldedLines := foldContinuations(lines[1:])
	headers, err := parseHeaders(foldedLines, strict)
	if err != nil {
		return nil, err
	}
	msg.Headers = headers
	msg.Body = buf[bodyStart:]

	return &decode.Layer{
		Name:         "HTTP",
		Bytes:        buf,
		HeaderLength: bodyStart,
		Payload:      buf[bodyStart:],
		Value:        msg,
	}, nil
}

// NextProtocol reports no successor: HTTP is always a terminal layer.
func (d *Decoder) NextProtocol(layer *decode.Layer) (decode.Identifier, bool) {
	return decode.Identifier{}, false
}

// findHeaderBoundary locates the first CRLFCRLF (or bare LFLF, tolerated as
// many real-world captures omit the CR). It returns the offset the header
// block ends at (exclusive of the blank line) and where the body begins.
func findHeaderBoundary(buf []byte) (headerEnd, bodyStart int, ok bool) {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '\n' {
			if i+1 < len(buf) && buf[i+1] == '\n' {
				return trimTrailingCR(buf, i), i + 2, true
			}
		}
		if i+3 < len(buf) && buf[i] == '\r' && buf[i+1] == '\n' && buf[i+2] == '\r' && buf[i+3] == '\n' {
			return i, i + 4, true
		}
	}
	return 0, 0, false
}

func trimTrailingCR(buf []byte, nlIndex int) int {
	if nlIndex > 0 && buf[nlIndex-1] == '\r' {
		return nlIndex - 1
	}
	return nlIndex
}

func splitLines(block []byte) []string {
	raw := strings.Split(string(block), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSuffix(l, "\r"))
	}
	return lines
}

// foldContinuations merges obsolete header line-folding: a line starting
// with SP or HTAB is a continuation of the previous header's value.
func foldContinuations(lines []string) []string {
	var out []string
	for _, line := range lines {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += " " + strings.TrimSpace(line)
			continue
		}
		out = append(out, line)
	}
	return out
}

func parseStartLine(line string, msg *Message) error {
	parts := strings.SplitN(line, " ", 3)

	// Status line: "HTTP/d.d SP statuscode [SP reason]" — the reason
	// phrase is optional per spec.md, so a 2-part split is still valid.
	if len(parts) >= 2 && strings.HasPrefix(parts[0], "HTTP/") {
		msg.IsRequest = false
		msg.Version = parts[0]
		code, err := strconv.Atoi(parts[1])
		if err != nil {
			return perr.Structuralf(0, "malformed HTTP status code %q", parts[1])
		}
		msg.StatusCode = code
		if len(parts) == 3 {
			msg.Reason = parts[2]
		}
		return nil
	}

	if len(parts) != 3 || !strings.HasPrefix(parts[2], "HTTP/") {
		return perr.Structuralf(0, "malformed HTTP start line %q", line)
	}
	msg.IsRequest = true
	msg.Method = parts[0]
	msg.Target = parts[1]
	msg.Version = parts[2]
	return nil
}

func parseHeaders(lines []string, strict bool) ([]Header, error) {
	var headers []Header
	for _, line := range lines {
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			if strict {
				return nil, perr.Structuralf(0, "malformed HTTP header line %q", line)
			}
			continue
		}
		name := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if existing, idx := findHeader(headers, name); idx >= 0 {
			headers[idx].Value = existing.Value + ", " + value
			continue
		}
		headers = append(headers, Header{Name: name, Value: value})
	}
	return headers, nil
}

func findHeader(headers []Header, name string) (Header, int) {
	for i, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h, i
		}
	}
	return Header{}, -1
}
