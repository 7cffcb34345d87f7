// Package acquire runs the producer side of the pipeline: it owns a device
// connection, reads whatever bytes are available, frames them into sample
// codes and pushes calibrated voltages into the shared buffer.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/mcuscope/pkg/config"
	"github.com/itohio/mcuscope/pkg/frame"
	"github.com/itohio/mcuscope/pkg/logging"
	"github.com/itohio/mcuscope/pkg/mcu"
	"github.com/itohio/mcuscope/pkg/sample"
	"go.uber.org/zap"
)

// DefaultReadBufferSize is the number of bytes requested per read.
const DefaultReadBufferSize = 4096

// ErrEndpointBusy is returned when another acquisition already owns the endpoint.
var ErrEndpointBusy = errors.New("endpoint already has an active acquisition")

// Options configures a Loop.
type Options struct {
	Endpoint       string
	BaudRate       int
	Opener         mcu.Opener
	Buffer         *sample.Buffer
	Calibration    sample.Calibration
	RetryCount     int           // Reopen attempts after a connection failure; 0 disables retries
	RetryDelay     time.Duration // Pause before each reopen
	ReadBufferSize int
	Logger         *zap.Logger
}

// OptionsFromConfig fills Options from the serial and calibration sections of cfg.
func OptionsFromConfig(cfg *config.Config, endpoint string, opener mcu.Opener, buf *sample.Buffer, logger *zap.Logger) Options {
	return Options{
		Endpoint:       endpoint,
		BaudRate:       cfg.Serial.BaudRate,
		Opener:         opener,
		Buffer:         buf,
		Calibration:    sample.NewCalibration(cfg.Calibration),
		RetryCount:     cfg.Serial.RetryCount,
		RetryDelay:     cfg.Serial.RetryDelay,
		ReadBufferSize: cfg.Serial.ReadBuffer,
		Logger:         logger,
	}
}

// Stats are running counters for a Loop.
type Stats struct {
	BytesRead    uint64
	Samples      uint64
	DroppedLines uint64
	Reconnects   uint64
}

// Loop is a single acquisition producer. A Loop may be run once at a time.
type Loop struct {
	opts   Options
	logger *zap.Logger

	bytesRead  atomic.Uint64
	samples    atomic.Uint64
	dropped    atomic.Uint64
	reconnects atomic.Uint64
}

// New creates a Loop. Missing options fall back to defaults.
func New(opts Options) *Loop {
	if opts.Opener == nil {
		opts.Opener = mcu.OpenSerial
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = mcu.DefaultBaudRate
	}
	if opts.Calibration.FullScale <= 0 {
		opts.Calibration = sample.DefaultCalibration
	}
	if opts.ReadBufferSize <= 0 {
		opts.ReadBufferSize = DefaultReadBufferSize
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	return &Loop{
		opts:   opts,
		logger: logging.OrNop(opts.Logger).With(zap.String("port", opts.Endpoint)),
	}
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		BytesRead:    l.bytesRead.Load(),
		Samples:      l.samples.Load(),
		DroppedLines: l.dropped.Load(),
		Reconnects:   l.reconnects.Load(),
	}
}

// Run opens the endpoint and pushes samples until ctx is cancelled or the
// connection fails for good. It returns ctx.Err() on cancellation and the
// last connection error otherwise.
func (l *Loop) Run(ctx context.Context) error {
	if l.opts.Buffer == nil {
		return fmt.Errorf("acquire %s: no sample buffer", l.opts.Endpoint)
	}

	release, err := claim(l.opts.Endpoint)
	if err != nil {
		l.logger.Error("[acquire] refusing second acquisition", zap.Error(err))
		return err
	}
	defer release()

	attempt := 0
	for {
		got, err := l.connect(ctx)
		if ctx.Err() != nil {
			l.logger.Info("[acquire] stopped", zap.Uint64("samples", l.samples.Load()))
			return ctx.Err()
		}
		if got > 0 {
			attempt = 0
		}
		if attempt >= l.opts.RetryCount {
			l.logger.Error("[acquire] connection failed", zap.Error(err), zap.Int("retries", attempt))
			return err
		}
		attempt++
		l.reconnects.Add(1)
		l.logger.Warn("[acquire] connection failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("retryCount", l.opts.RetryCount),
			zap.Duration("delay", l.opts.RetryDelay),
		)

		timer := time.NewTimer(l.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// connect runs one connection from open to failure or cancellation and
// returns the number of bytes read.
func (l *Loop) connect(ctx context.Context) (uint64, error) {
	conn, err := l.opts.Opener(l.opts.Endpoint, l.opts.BaudRate)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", l.opts.Endpoint, err)
	}
	l.logger.Info("[acquire] connected", zap.Int("baudRate", l.opts.BaudRate))

	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() {
			if err := conn.Close(); err != nil {
				l.logger.Debug("[acquire] error closing connection", zap.Error(err))
			}
		})
	}
	defer closeConn()

	// A blocked Read only returns once the port is closed.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-stop:
		}
	}()

	parser := frame.NewParser()
	buf := make([]byte, l.opts.ReadBufferSize)
	volts := make([]float64, 0, l.opts.ReadBufferSize/2)
	var total uint64

	for {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}

		n, err := conn.Read(buf)
		if n > 0 {
			total += uint64(n)
			l.bytesRead.Add(uint64(n))

			before := parser.Dropped()
			codes := parser.Codes(buf[:n])
			if d := parser.Dropped() - before; d > 0 {
				l.dropped.Add(d)
			}
			if len(codes) > 0 {
				volts = l.opts.Calibration.VoltsAll(volts[:0], codes)
				l.opts.Buffer.PushMany(volts)
				l.samples.Add(uint64(len(volts)))
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return total, fmt.Errorf("read %s: connection closed: %w", l.opts.Endpoint, err)
			}
			return total, fmt.Errorf("read %s: %w", l.opts.Endpoint, err)
		}
	}
}

// Start runs the loop in its own goroutine.
func (l *Loop) Start(ctx context.Context) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		loop:   l,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		s.err = l.Run(ctx)
	}()
	return s
}

// Session is a running acquisition.
type Session struct {
	loop   *Loop
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed when the loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the loop's exit error once Done is closed; nil before that
// and nil when the session was stopped by cancellation or a deadline.
func (s *Session) Err() error {
	select {
	case <-s.done:
	default:
		return nil
	}
	if errors.Is(s.err, context.Canceled) || errors.Is(s.err, context.DeadlineExceeded) {
		return nil
	}
	return s.err
}

// Stats returns the loop counters.
func (s *Session) Stats() Stats {
	return s.loop.Stats()
}

// Stop cancels the session and waits up to timeout for the loop to exit.
func (s *Session) Stop(timeout time.Duration) error {
	s.cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.done:
		return s.Err()
	case <-timer.C:
		return fmt.Errorf("acquire %s: loop did not stop within %s", s.loop.opts.Endpoint, timeout)
	}
}

var (
	ownersMu sync.Mutex
	owners   = make(map[string]struct{})
)

// claim marks endpoint as owned until the returned release is called.
func claim(endpoint string) (func(), error) {
	ownersMu.Lock()
	defer ownersMu.Unlock()

	if _, busy := owners[endpoint]; busy {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrEndpointBusy)
	}
	owners[endpoint] = struct{}{}

	return func() {
		ownersMu.Lock()
		delete(owners, endpoint)
		ownersMu.Unlock()
	}, nil
}
