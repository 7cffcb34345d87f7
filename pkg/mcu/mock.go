package mcu

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/itohio/mcuscope/pkg/config"
	"github.com/itohio/mcuscope/pkg/sample"
)

// MockBanner is printed once when a mocked connection opens, like the
// firmware's setup() does.
const MockBanner = "ADC initialized"

// mockTick is how often the generator flushes a batch of lines.
const mockTick = 10 * time.Millisecond

// Mock simulates a microcontroller streaming one ADC code per line.
// The signal is a sinusoid with offset and uniform noise, quantized with
// the given calibration.
type Mock struct {
	cfg *config.MockConfig
	cal sample.Calibration

	mu   sync.Mutex
	open map[*mockConn]struct{}
}

// NewMock creates a new mocked device instance. cfg is copied; later changes
// to it do not affect the mock.
func NewMock(cfg *config.MockConfig, cal sample.Calibration) *Mock {
	if cfg != nil {
		c := *cfg
		cfg = &c
	} else {
		cfg = &config.MockConfig{
			Frequency:  50,
			Amplitude:  1.0,
			Offset:     1.65,
			NoiseLevel: 0.01,
			SampleRate: 1000,
		}
	}
	if cal.FullScale <= 0 {
		cal = sample.DefaultCalibration
	}

	return &Mock{
		cfg:  cfg,
		cal:  cal,
		open: make(map[*mockConn]struct{}),
	}
}

// Open starts a simulated stream. The name and bit rate are ignored.
func (m *Mock) Open(name string, baudRate int) (Conn, error) {
	if m == nil {
		return nil, fmt.Errorf("mock device is nil")
	}

	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	c := &mockConn{
		pr:     pr,
		pw:     pw,
		cancel: cancel,
		done:   make(chan struct{}),
		owner:  m,
	}

	m.mu.Lock()
	m.open[c] = struct{}{}
	m.mu.Unlock()

	go m.generate(ctx, c)

	return c, nil
}

// Connections returns the number of currently open mocked connections.
func (m *Mock) Connections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// code returns the raw ADC code of the i-th sample.
func (m *Mock) code(i int, rng *rand.Rand) int {
	t := float64(i) / m.cfg.SampleRate
	v := m.cfg.Offset + m.cfg.Amplitude*math.Sin(2*math.Pi*m.cfg.Frequency*t)
	if m.cfg.NoiseLevel > 0 && rng != nil {
		v += (rng.Float64()*2 - 1) * m.cfg.NoiseLevel
	}
	return m.cal.Code(v)
}

// generate writes batches of lines paced to the configured sample rate.
func (m *Mock) generate(ctx context.Context, c *mockConn) {
	defer close(c.done)
	defer c.pw.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if _, err := c.pw.Write([]byte(MockBanner + "\r\n")); err != nil {
		return
	}

	ticker := time.NewTicker(mockTick)
	defer ticker.Stop()

	start := time.Now()
	emitted := 0
	buf := make([]byte, 0, 4096)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due := int(now.Sub(start).Seconds() * m.cfg.SampleRate)
			buf = buf[:0]
			for ; emitted < due; emitted++ {
				if m.cfg.DebugEvery > 0 && emitted > 0 && emitted%m.cfg.DebugEvery == 0 {
					buf = append(buf, "debug: sample "...)
					buf = strconv.AppendInt(buf, int64(emitted), 10)
					buf = append(buf, '\r', '\n')
				}
				buf = strconv.AppendInt(buf, int64(m.code(emitted, rng)), 10)
				buf = append(buf, '\r', '\n')
			}
			if len(buf) == 0 {
				continue
			}
			if _, err := c.pw.Write(buf); err != nil {
				return
			}
		}
	}
}

// mockConn is one simulated connection.
type mockConn struct {
	pr     *io.PipeReader
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan struct{}
	owner  *Mock
	once   sync.Once
}

// Read returns whatever the generator has written, blocking until data arrives.
func (c *mockConn) Read(p []byte) (int, error) {
	return c.pr.Read(p)
}

// Close stops the generator and unblocks pending reads.
func (c *mockConn) Close() error {
	c.once.Do(func() {
		c.cancel()
		c.pr.CloseWithError(io.ErrClosedPipe)
		<-c.done

		c.owner.mu.Lock()
		delete(c.owner.open, c)
		c.owner.mu.Unlock()
	})
	return nil
}
