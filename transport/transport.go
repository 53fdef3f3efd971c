// Package transport manages the TCP/TLS connection lifecycle and
// complete-packet reads for a single FESL or Theater session.
package transport

import (
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/miekg/dns"

	"github.com/cetteup/bfbc2-statsd-go/bfconst"
	"github.com/cetteup/bfbc2-statsd-go/bferrors"
	"github.com/cetteup/bfbc2-statsd-go/internal/gwlog"
	"github.com/cetteup/bfbc2-statsd-go/packet"
)

func dnsOverride(host string) (string, bool) {
	ip, ok := bfconst.DNSOverrides[host]
	return ip, ok
}

const defaultKeepAlivePeriod = 2 * time.Second

// Conn is a single connection to a FESL or Theater backend: connect on
// first use, write full packets, and perform complete two-phase
// (header-then-body) reads.
type Conn struct {
	host    string
	port    int
	family  packet.Family
	useTLS  bool
	timeout time.Duration
	log     *gwlog.Logger

	nc        net.Conn
	connected bool
}

// Option configures a Conn at construction time.
type Option func(*Conn)

// WithTimeout overrides the default 2-second progress timeout used for
// both connection and read-progress deadlines.
func WithTimeout(d time.Duration) Option {
	return func(c *Conn) { c.timeout = d }
}

// WithLogger attaches a logger; if omitted, a no-op logger is used.
func WithLogger(l *gwlog.Logger) Option {
	return func(c *Conn) { c.log = l }
}

// New creates a Conn for host:port. useTLS selects the legacy-cipher TLS
// dial path FESL backends require; Theater connections are always
// plaintext.
func New(host string, port int, family packet.Family, useTLS bool, opts ...Option) *Conn {
	c := &Conn{
		host:    host,
		port:    port,
		family:  family,
		useTLS:  useTLS,
		timeout: 2 * time.Second,
		log:     gwlog.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the backend if not already connected. Subsequent calls
// are no-ops, matching the connect-on-first-use behavior Write/Read rely
// on.
func (c *Conn) Connect() error {
	if c.connected {
		return nil
	}

	ip, err := resolve(c.host)
	if err != nil {
		return bferrors.Wrap(bferrors.Connection, "transport: failed to resolve "+c.host, err)
	}
	addr := net.JoinHostPort(ip, strconv.Itoa(c.port))

	dialer := &net.Dialer{Timeout: c.timeout}
	var nc net.Conn
	if c.useTLS {
		nc, err = tls.DialWithDialer(dialer, "tcp", addr, legacyTLSConfig())
	} else {
		nc, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			c.log.Warn("connection attempt timed out", gwlog.KV("remote", addr), gwlog.KVErr(err))
			return bferrors.Wrap(bferrors.Timeout, "transport: connection attempt to "+addr+" timed out", err)
		}
		c.log.Warn("connect failed", gwlog.KV("remote", addr), gwlog.KVErr(err))
		return bferrors.Wrap(bferrors.Connection, "transport: failed to connect to "+addr, err)
	}

	enableKeepAlive(nc, defaultKeepAlivePeriod)
	c.nc = nc
	c.connected = true
	c.log.Info("connected", gwlog.KV("remote", addr), gwlog.KV("tls", c.useTLS))
	return nil
}

// legacyTLSConfig matches the historical cipher/version requirements of
// these EA backends: TLS 1.0 minimum, no certificate verification, and a
// HIGH-strength cipher list excluding DH/anonymous suites. Go's crypto/tls
// no longer exposes an OpenSSL-style cipher string, so the closest
// equivalent non-anonymous, non-export AEAD/CBC suite set is pinned
// explicitly instead.
func legacyTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS10,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_RSA_WITH_AES_256_CBC_SHA,
			tls.TLS_RSA_WITH_AES_128_CBC_SHA,
		},
	}
}

func enableKeepAlive(nc net.Conn, period time.Duration) {
	switch v := nc.(type) {
	case *net.TCPConn:
		_ = v.SetKeepAlive(true)
		_ = v.SetKeepAlivePeriod(period)
	case *tls.Conn:
		if tc, ok := v.NetConn().(*net.TCPConn); ok {
			_ = tc.SetKeepAlive(true)
			_ = tc.SetKeepAlivePeriod(period)
		}
	}
}

// Write connects on first use, then sends the packet's full wire bytes.
func (c *Conn) Write(p *packet.Packet) error {
	if err := c.Connect(); err != nil {
		return err
	}
	if _, err := c.nc.Write(p.Bytes()); err != nil {
		c.log.Warn("write failed", gwlog.KVErr(err))
		return bferrors.Wrap(bferrors.Connection, "transport: failed to send data to server", err)
	}
	c.log.Debug("wrote packet", gwlog.KV("bytes", len(p.Header)+len(p.Body)))
	return nil
}

// Read connects on first use, then performs a two-phase complete-packet
// read: the 12-byte header first (validated as soon as complete), then
// the body, to the length the header indicates. Each phase resets its
// own progress deadline on every chunk received, so a slow-but-live
// connection does not time out as long as some data keeps arriving.
func (c *Conn) Read() (*packet.Packet, error) {
	if err := c.Connect(); err != nil {
		return nil, err
	}

	p := &packet.Packet{Family: c.family}

	header, err := c.readUntil(nil, packet.HeaderLength)
	if err != nil {
		return nil, err
	}
	p.Header = header
	if err := p.ValidateHeader(); err != nil {
		return nil, err
	}

	body, err := c.readUntil(nil, p.IndicatedBodyLength())
	if err != nil {
		return nil, err
	}
	p.Body = body
	if err := p.ValidateBody(); err != nil {
		return nil, err
	}

	c.log.Debug("read packet", gwlog.KV("bytes", len(p.Header)+len(p.Body)), gwlog.KV("tid", p.GetTID()))
	return p, nil
}

// readUntil accumulates exactly n bytes (starting from buf, which may be
// nil), resetting the progress deadline whenever a read returns data, and
// failing with bferrors.Timeout once the deadline passes with no
// progress.
func (c *Conn) readUntil(buf []byte, n int) ([]byte, error) {
	out := append([]byte{}, buf...)
	chunk := make([]byte, 4096)
	lastProgress := time.Now()

	for len(out) < n {
		if err := c.nc.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, bferrors.Wrap(bferrors.Connection, "transport: failed to set read deadline", err)
		}
		want := n - len(out)
		if want > len(chunk) {
			want = len(chunk)
		}
		read, err := c.nc.Read(chunk[:want])
		if read > 0 {
			out = append(out, chunk[:read]...)
			lastProgress = time.Now()
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if time.Since(lastProgress) >= c.timeout {
					c.log.Warn("read timed out with no progress", gwlog.KV("wanted", n), gwlog.KV("got", len(out)))
					return nil, bferrors.New(bferrors.Timeout, "transport: timed out while receiving server data")
				}
				continue
			}
			c.log.Warn("read failed", gwlog.KVErr(err))
			return nil, bferrors.Wrap(bferrors.Connection, "transport: failed to receive data from server", err)
		}
	}
	return out, nil
}

// Close shuts down and closes the underlying connection. Safe to call
// more than once.
func (c *Conn) Close() error {
	if !c.connected || c.nc == nil {
		return nil
	}
	err := c.nc.Close()
	c.connected = false
	if err != nil {
		c.log.Warn("close failed", gwlog.KVErr(err))
		return bferrors.Wrap(bferrors.Connection, "transport: failed to close connection", err)
	}
	c.log.Info("closed connection")
	return nil
}

// resolve looks up host's address: a DNS override table is consulted
// first (for backends whose public hostnames no longer resolve), falling
// back to a one-shot A-record query via miekg/dns against the system
// resolver, and finally to Go's default resolver if no nameserver
// configuration can be read.
func resolve(host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}
	if override, ok := dnsOverride(host); ok {
		return override, nil
	}

	if cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(cfg.Servers) > 0 {
		c := new(dns.Client)
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(host), dns.TypeA)
		server := net.JoinHostPort(cfg.Servers[0], cfg.Port)
		if resp, _, err := c.Exchange(m, server); err == nil {
			for _, rr := range resp.Answer {
				if a, ok := rr.(*dns.A); ok {
					return a.A.String(), nil
				}
			}
		}
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return ips[0].String(), nil
}
