package portal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/credentials"
	"github.com/muurk/netmgr/internal/fault"
	"github.com/muurk/netmgr/internal/httpwire"
	"github.com/muurk/netmgr/internal/logging"
	"github.com/muurk/netmgr/internal/provision"
)

// Defaults for the serving loop
const (
	DefaultAcceptPoll  = 200 * time.Millisecond
	DefaultReadTimeout = 5 * time.Second
	DefaultTitle       = "WiFi Setup"
)

// Store is the credential record the portal reads and replaces
type Store interface {
	Load() credentials.Credentials
	Save(credentials.Credentials) error
}

// Intents receives the withdrawal submitted after a successful save
type Intents interface {
	Withdraw(reason provision.Reason) bool
}

// Announcer advertises the portal while it is listening
type Announcer interface {
	Start() error
	Stop()
}

// Result summarizes one serving session
type Result struct {
	Saved    bool // New credentials were stored during the session
	Requests int  // Connections handled
}

// Portal serves the credential-entry form on a single listening socket.
// Requests are handled one at a time on the goroutine that calls Serve.
type Portal struct {
	addr        string
	store       Store
	intents     Intents
	announcer   Announcer
	title       string
	acceptPoll  time.Duration
	readTimeout time.Duration
	onListen    func(net.Addr)
	logger      *zap.Logger
}

// Option configures a Portal
type Option func(*Portal)

// WithAnnouncer advertises the portal while it serves
func WithAnnouncer(a Announcer) Option {
	return func(p *Portal) { p.announcer = a }
}

// WithTitle sets the page heading
func WithTitle(title string) Option {
	return func(p *Portal) { p.title = title }
}

// WithAcceptPoll sets how often the stop condition is checked
func WithAcceptPoll(d time.Duration) Option {
	return func(p *Portal) {
		if d > 0 {
			p.acceptPoll = d
		}
	}
}

// WithReadTimeout bounds how long one client may take to send its request
func WithReadTimeout(d time.Duration) Option {
	return func(p *Portal) {
		if d > 0 {
			p.readTimeout = d
		}
	}
}

// WithListenHook is called with the bound address once the socket is open
func WithListenHook(fn func(net.Addr)) Option {
	return func(p *Portal) { p.onListen = fn }
}

// New creates a portal that will listen on addr
func New(addr string, store Store, intents Intents, opts ...Option) *Portal {
	p := &Portal{
		addr:        addr,
		store:       store,
		intents:     intents,
		title:       DefaultTitle,
		acceptPoll:  DefaultAcceptPoll,
		readTimeout: DefaultReadTimeout,
		logger:      logging.Named("portal"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// Serve binds the listening socket and handles requests until stop returns
// true or ctx is cancelled. stop is evaluated between accepts, at least once
// per accept poll interval. Serve returns only after the in-flight response
// has been written and its connection closed, with the socket released.
func (p *Portal) Serve(ctx context.Context, stop func() bool) (Result, error) {
	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return Result{}, fmt.Errorf("failed to listen on %s: %w", p.addr, err)
	}
	return p.serveOn(ctx, ln, stop)
}

// serveOn runs the accept loop on ln and closes it on return
func (p *Portal) serveOn(ctx context.Context, ln net.Listener, stop func() bool) (Result, error) {
	var res Result

	defer func() {
		ln.Close()
		p.logger.Info("Portal stopped",
			zap.Int("requests", res.Requests),
			zap.Bool("saved", res.Saved),
		)
	}()

	p.logger.Info("Portal listening", zap.String("addr", ln.Addr().String()))
	if p.onListen != nil {
		p.onListen(ln.Addr())
	}

	if p.announcer != nil {
		if err := p.announcer.Start(); err != nil {
			p.logger.Warn("Portal advertisement failed", zap.Error(err))
		} else {
			defer p.announcer.Stop()
		}
	}

	dl, _ := ln.(deadliner)

	for {
		if ctx.Err() != nil || stop() {
			return res, nil
		}

		if dl != nil {
			if err := dl.SetDeadline(time.Now().Add(p.acceptPoll)); err != nil {
				p.logger.Warn("Failed to set accept deadline", zap.Error(err))
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return res, err
			}
			p.logger.Error("Failed to accept connection", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(p.acceptPoll):
			}
			continue
		}

		res.Requests++
		if p.serveConn(conn) {
			res.Saved = true
		}
	}
}

// serveConn reads one request, writes one response and closes the
// connection. It reports whether the request stored new credentials.
func (p *Portal) serveConn(conn net.Conn) bool {
	remoteAddr := conn.RemoteAddr().String()
	defer func() {
		conn.Close()
		logging.LogConnection(remoteAddr, "connection_closed")
	}()
	logging.LogConnection(remoteAddr, "connection_accepted")

	conn.SetReadDeadline(time.Now().Add(p.readTimeout))
	req, err := httpwire.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		switch {
		case fault.IsClosed(err):
			p.logger.Debug("Client closed without a request", zap.String("remote_addr", remoteAddr))
		case fault.IsMalformed(err):
			p.logger.Warn("Dropping malformed request",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
		default:
			p.logger.Debug("Failed to read request",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
		}
		return false
	}

	logging.LogHTTPRequest(remoteAddr, req.Method, req.Path, req.Headers)

	resp, saved := p.Handle(req)

	conn.SetWriteDeadline(time.Now().Add(p.readTimeout))
	if _, err := httpwire.WriteResponse(conn, resp); err != nil {
		p.logger.Warn("Failed to send response",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		// The record is already replaced; the save still counts
		return saved
	}
	logging.LogHTTPResponse(remoteAddr, resp.Status, resp.HeaderMap())

	return saved
}
