// Command wheellycore wires the perception core's external
// collaborators together: load the YAML world configuration, dial the
// sensor link, drive the world modeller's tick loop against decoded
// messages, and journal the raw traffic to a dump file. The inference
// callback is a no-op here; a real deployment registers its own
// controller.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/wheelly/pkg/config"
	"github.com/itohio/wheelly/pkg/dump"
	"github.com/itohio/wheelly/pkg/geom"
	"github.com/itohio/wheelly/pkg/link"
	"github.com/itohio/wheelly/pkg/logger"
	"github.com/itohio/wheelly/pkg/message"
	"github.com/itohio/wheelly/pkg/status"
	"github.com/itohio/wheelly/pkg/world"
)

const degToRad = math32.Pi / 180

// clockSyncInterval is how often the host reissues the four-timestamp
// clock exchange; a single exchange installs the synchroniser, the
// reissue bounds drift.
const clockSyncInterval = 10 * time.Second

var (
	configPath = flag.String("config", "wheelly.yaml", "path to the world modeller YAML configuration")
	dumpPath   = flag.String("dump", "", "path to a binary journal file; empty disables dumping")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logger.Log.Error().Err(err).Msg("wheellycore exiting")
		os.Exit(exitCode(err))
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loader := config.NewLoader()
	cfg, err := loader.Load(*configPath)
	if err != nil {
		return err
	}

	spec := status.Spec{
		MaxRadarDistance: cfg.Robot.MaxRadarDistance,
		ReceptiveAngle:   geom.FromRad(cfg.Robot.ReceptiveAngleDeg * degToRad),
		ContactRadius:    cfg.Robot.ContactRadius,
		CameraHalfView:   geom.FromRad(cfg.Robot.CameraHalfViewDeg * degToRad),
		AnglePerPixel:    cfg.Robot.AnglePerPixel,
	}

	modeller := world.New(cfg.ToWorldConfig(), spec, geom.Point{})

	var journal *dump.Writer
	if *dumpPath != "" {
		f, err := os.Create(*dumpPath)
		if err != nil {
			return fmt.Errorf("opening dump file: %w", err)
		}
		defer f.Close()
		journal = dump.NewWriter(f)
		defer journal.Flush()
	}

	lnk := link.New(link.Config{
		ReadTimeout:    time.Duration(cfg.Link.ReadTimeout) * time.Millisecond,
		QueueSize:      cfg.Link.QueueSize,
		InitialBackoff: time.Duration(cfg.Link.InitialBackoff) * time.Millisecond,
		MaxBackoff:     time.Duration(cfg.Link.MaxBackoff) * time.Millisecond,
		Blocking:       true,
	}, dialTCP(cfg.Link.Address, time.Duration(cfg.Link.ConnectTimeout)*time.Millisecond))

	runErr := make(chan error, 1)
	go func() {
		if cfg.Link.UnsafeWindow > 0 {
			wd := link.Watchdog{
				Predicate: func() bool { return lnk.State() != link.Disconnected },
				Interval:  time.Second,
				Window:    time.Duration(cfg.Link.UnsafeWindow) * time.Millisecond,
			}
			runErr <- lnk.RunWithWatchdog(ctx, wd)
			return
		}
		runErr <- lnk.Run(ctx)
	}()

	noopInfer := func(world.Model) world.Commands { return world.Commands{} }

	// syncClock issues one clock-exchange request. A send on a
	// disconnected link fails silently here; the ticker retries.
	syncClock := func() {
		line := message.ClockRequest(world.Now())
		if err := lnk.Send(line); err != nil {
			return
		}
		if journal != nil {
			_ = journal.Write(dump.Record{Direction: dump.TX, Timestamp: world.Now(), Line: line})
		}
	}

	syncTicker := time.NewTicker(clockSyncInterval)
	defer syncTicker.Stop()
	syncClock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		case <-syncTicker.C:
			syncClock()
		case dec, ok := <-lnk.Out():
			if !ok {
				return nil
			}
			if journal != nil {
				_ = journal.Write(dump.Record{Direction: dump.RX, Timestamp: world.Now(), Line: dec.Line})
			}
			remote, tick := ingest(modeller, dec)
			// Ticks wait for the first completed clock exchange so
			// every timestamp entering the maps is on the host clock.
			if tick && modeller.Synced() {
				modeller.Tick(modeller.LocalTime(remote), noopInfer)
			}
		}
	}
}

// ingest routes a decoded message to the matching Modeller.Ingest*
// method by its Kind, returning the message's remote timestamp and
// whether it should drive a tick. Clock replies close the exchange
// (destination stamped at arrival) and never tick themselves.
func ingest(m *world.Modeller, dec link.Decoded) (remoteTime int64, tick bool) {
	switch dec.Kind {
	case message.KindMotion:
		msg := dec.Msg.(message.Motion)
		m.IngestMotion(msg)
		return msg.RemoteTime, true
	case message.KindProxy:
		msg := dec.Msg.(message.Proxy)
		m.IngestProxy(msg)
		return msg.RemoteTime, true
	case message.KindContacts:
		msg := dec.Msg.(message.Contacts)
		m.IngestContacts(msg)
		return msg.RemoteTime, true
	case message.KindSupply:
		msg := dec.Msg.(message.Supply)
		m.IngestSupply(msg)
		return msg.RemoteTime, true
	case message.KindCamera:
		msg := dec.Msg.(message.Camera)
		m.IngestCamera(msg)
		return msg.RemoteTime, true
	case message.KindClock:
		m.IngestClock(dec.Msg.(message.ClockSync), world.Now())
	}
	return 0, false
}

// dialTCP returns a link.Dialer that opens a TCP keep-alive
// connection to addr.
func dialTCP(addr string, timeout time.Duration) link.Dialer {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		d := net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
		return d.DialContext(ctx, "tcp", addr)
	}
}

// exitCode maps a startup/runtime error to a process exit code: 2 for
// configuration errors, 4 for an unrecoverable link error, 5 for a
// watchdog-raised unsafe signal, 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrConfigError):
		return 2
	case errors.Is(err, link.ErrLinkFailure):
		return 4
	case errors.Is(err, link.ErrUnsafeSignal):
		return 5
	default:
		return 1
	}
}
