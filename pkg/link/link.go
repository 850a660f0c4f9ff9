// Package link implements the sensor link's line framing, bounded
// decoded-message queue and reconnect/backoff machinery over an
// io.ReadWriteCloser the caller dials. It never opens a socket
// itself; the TCP dial and keep-alive setup belong to the caller.
package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/itohio/wheelly/pkg/logger"
	"github.com/itohio/wheelly/pkg/message"
)

// ErrLinkFailure is wrapped by every read/write/timeout failure on the
// link; it marks the link Disconnected and schedules a reconnect.
var ErrLinkFailure = errors.New("link failure")

// Decoded pairs a successfully decoded message with its kind, as read
// off the link.
type Decoded struct {
	Kind message.Kind
	Msg  any
	Line string
}

// State is the link's connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

// Dialer opens a fresh transport; the caller supplies the actual
// socket dial (or any other io.ReadWriteCloser source, e.g. a recorded
// dump file for replay).
type Dialer func(ctx context.Context) (io.ReadWriteCloser, error)

// Config bundles the framing, queue and backoff tunables.
type Config struct {
	ReadTimeout    time.Duration
	QueueSize      int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Blocking selects StepSend's blocking-vs-drop semantics for the
	// decoded-message queue: true blocks the reader until a consumer
	// drains it, false drops the message when the queue is full.
	Blocking       bool
}

// SafetyPredicate reports whether the link-driven system is currently
// safe; the Watchdog returns ErrUnsafeSignal if it returns false
// continuously for longer than Watchdog.Window.
type SafetyPredicate func() bool

// Link reads line-delimited messages from a dialed transport into a
// bounded, back-pressured channel, decoding each line with
// message.Decode and reconnecting with exponential backoff on
// failure.
type Link struct {
	cfg    Config
	dial   Dialer
	out    chan Decoded
	mu     sync.Mutex
	state  State
	conn   io.ReadWriteCloser
	cancel context.CancelFunc
}

// New builds a Link that dials transports via dial and queues decoded
// messages on a channel of capacity cfg.QueueSize.
func New(cfg Config, dial Dialer) *Link {
	return &Link{
		cfg:  cfg,
		dial: dial,
		out:  make(chan Decoded, cfg.QueueSize),
	}
}

// Out is the channel downstream consumers (the world tick loop) read
// decoded messages from.
func (l *Link) Out() <-chan Decoded { return l.out }

// State reports the link's current connection state.
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Link) setState(s State) {
	l.mu.Lock()
	l.state = s
	if s != Connected {
		l.conn = nil
	}
	l.mu.Unlock()
}

func (l *Link) setConnected(conn io.ReadWriteCloser) {
	l.mu.Lock()
	l.state = Connected
	l.conn = conn
	l.mu.Unlock()
}

// Send writes one CRLF-terminated command line to the connected
// transport: motor power, sensor azimuth, halt, or a clock-exchange
// request. It fails with ErrLinkFailure while the link is
// disconnected.
func (l *Link) Send(line string) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: not connected", ErrLinkFailure)
	}
	if _, err := io.WriteString(conn, line+"\r\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrLinkFailure, err)
	}
	return nil
}

// Run drives the connect/read/reconnect loop until ctx is cancelled.
// Malformed lines are logged and dropped; consumers keep ticking. Link
// failures (read error, read timeout) mark the link Disconnected and
// retry the dial with exponential backoff bounded by cfg.MaxBackoff.
func (l *Link) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	defer close(l.out)

	backoff := l.cfg.InitialBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.setState(Connecting)
		conn, err := l.dial(ctx)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("link dial failed")
			l.setState(Disconnected)
			if !sleepBackoff(ctx, &backoff, l.cfg.MaxBackoff) {
				return ctx.Err()
			}
			continue
		}

		l.setConnected(conn)
		backoff = l.cfg.InitialBackoff
		err = l.readLoop(ctx, conn)
		conn.Close()
		l.setState(Disconnected)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("link disconnected, reconnecting")
		}
		if !sleepBackoff(ctx, &backoff, l.cfg.MaxBackoff) {
			return ctx.Err()
		}
	}
}

// Stop cancels a running Link's context.
func (l *Link) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
}

// RunWithWatchdog supervises the link's connect/read loop and a safety
// Watchdog together: either one failing (ErrUnsafeSignal from the
// watchdog, or ctx cancellation) stops both, via errgroup.WithContext.
func (l *Link) RunWithWatchdog(ctx context.Context, wd Watchdog) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.Run(gctx) })
	g.Go(func() error { return wd.Run(gctx) })
	return g.Wait()
}

// deadliner is satisfied by net.Conn; a transport that doesn't
// implement it (e.g. an in-memory pipe used by tests) simply never
// gets a per-read deadline.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

func (l *Link) readLoop(ctx context.Context, conn io.ReadWriteCloser) error {
	scanner := bufio.NewScanner(conn)
	scanner.Split(scanCRLF)

	dl, hasDeadline := conn.(deadliner)

	for {
		if hasDeadline && l.cfg.ReadTimeout > 0 {
			if err := dl.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout)); err != nil {
				return fmt.Errorf("%w: setting read deadline: %v", ErrLinkFailure, err)
			}
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := l.dispatch(ctx, line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLinkFailure, err)
	}
	return nil
}

func (l *Link) dispatch(ctx context.Context, line string) error {
	kind, msg, err := message.Decode(line)
	if err != nil {
		logger.Log.Warn().Err(err).Str("line", line).Msg("malformed message, dropping")
		return nil
	}

	dec := Decoded{Kind: kind, Msg: msg, Line: line}
	if l.cfg.Blocking {
		select {
		case l.out <- dec:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}

	select {
	case l.out <- dec:
	case <-ctx.Done():
		return ctx.Err()
	default:
		logger.Log.Warn().Str("line", line).Msg("queue full, dropping message")
	}
	return nil
}

// scanCRLF is a bufio.SplitFunc that splits on CRLF (and bare LF, for
// leniency with replayed dumps).
func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := indexNewline(data); i >= 0 {
		end := i
		if end > 0 && data[end-1] == '\r' {
			end--
		}
		return i + 1, data[:end], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func indexNewline(data []byte) int {
	for i, b := range data {
		if b == '\n' {
			return i
		}
	}
	return -1
}

// sleepBackoff waits for the current backoff duration (doubling it up
// to max for the next call), returning false if ctx is cancelled
// first.
func sleepBackoff(ctx context.Context, backoff *time.Duration, max time.Duration) bool {
	select {
	case <-time.After(*backoff):
	case <-ctx.Done():
		return false
	}
	*backoff *= 2
	if *backoff > max {
		*backoff = max
	}
	return true
}

// Watchdog runs a SafetyPredicate on an interval and reports
// ErrUnsafeSignal once it has failed continuously for longer than
// Window.
type Watchdog struct {
	Predicate SafetyPredicate
	Interval  time.Duration
	Window    time.Duration
}

// ErrUnsafeSignal is returned by Watchdog.Run when the safety
// predicate has failed continuously for longer than the configured
// window; it halts motion and terminates the control loop.
var ErrUnsafeSignal = errors.New("unsafe signal")

// Run blocks until ctx is cancelled or the predicate has failed
// continuously for longer than w.Window, in which case it returns
// ErrUnsafeSignal.
func (w Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	var failingSince time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if w.Predicate() {
				failingSince = time.Time{}
				continue
			}
			if failingSince.IsZero() {
				failingSince = now
				continue
			}
			if now.Sub(failingSince) > w.Window {
				return ErrUnsafeSignal
			}
		}
	}
}
