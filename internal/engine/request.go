package engine

import (
	"bytes"
	"encoding/json"
	"net"
	"strings"
)

// Request is the transport-neutral view of an inbound HTTP request that the
// classifier evaluates. The boundary layer (Gin middleware) fills it in before
// calling Analyze, keeping the engine free of framework types.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Params map[string]string
	Body   string

	UserAgent string
	Referer   string

	// Client address resolution inputs, tried in order by ClientIP.
	ForwardedFor string // X-Forwarded-For header value
	RealIP       string // X-Real-IP header value
	RemoteAddr   string // underlying connection address
}

// UnknownAddr is the fallback when no client address can be resolved.
const UnknownAddr = "Unknown"

type canonicalHeaders struct {
	UserAgent string `json:"user-agent"`
	Referer   string `json:"referer"`
}

type canonicalRequest struct {
	Body    string            `json:"body"`
	Query   map[string]string `json:"query"`
	Params  map[string]string `json:"params"`
	Path    string            `json:"path"`
	Headers canonicalHeaders  `json:"headers"`
}

// Canonical serializes the request into the single text all rules are matched
// against. Field order is fixed by the struct layout and map keys are emitted
// sorted, so the same request always yields the same bytes. Absent maps are
// normalized to empty objects to keep the format stable.
func (r *Request) Canonical() string {
	doc := canonicalRequest{
		Body:   r.Body,
		Query:  r.Query,
		Params: r.Params,
		Path:   r.Path,
		Headers: canonicalHeaders{
			UserAgent: r.UserAgent,
			Referer:   r.Referer,
		},
	}
	if doc.Query == nil {
		doc.Query = map[string]string{}
	}
	if doc.Params == nil {
		doc.Params = map[string]string{}
	}

	// Encode without HTML escaping so patterns like <script> see the raw
	// characters. Encoding plain strings and string maps cannot fail.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(doc)
	return strings.TrimSuffix(buf.String(), "\n")
}

// ClientIP resolves the source address: first X-Forwarded-For entry, then
// X-Real-IP, then the connection address, then the Unknown sentinel.
func (r *Request) ClientIP() string {
	if r.ForwardedFor != "" {
		first := strings.TrimSpace(strings.Split(r.ForwardedFor, ",")[0])
		if first != "" {
			return first
		}
	}

	if r.RealIP != "" {
		return r.RealIP
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}

	return UnknownAddr
}
