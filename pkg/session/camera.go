package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/menta2k/face-analyzer/pkg/analyzer"
	"github.com/menta2k/face-analyzer/pkg/capture"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// ErrAlreadyRunning is returned by Start while a capture loop is active
var ErrAlreadyRunning = errors.New("session: camera already running")

// FrameAnalyzer analyzes one frame
type FrameAnalyzer interface {
	Analyze(ctx context.Context, img image.Image) (*analyzer.Result, error)
}

// CameraConfig controls frame throttling
type CameraConfig struct {
	// ProcessEveryNth analyzes one frame out of every N read
	ProcessEveryNth int
	// RefreshEvery publishes an update after every N processed frames
	RefreshEvery int
	// FrameInterval is the pause between frame reads
	FrameInterval time.Duration
}

// DefaultCameraConfig returns the default throttling settings
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		ProcessEveryNth: 1,
		RefreshEvery:    10,
		FrameInterval:   100 * time.Millisecond,
	}
}

// Update is a snapshot published by the capture loop
type Update struct {
	Frame     *image.NRGBA
	Records   []types.AttributeRecord
	Total     int
	Processed int
	// Final marks the last update of a run
	Final bool
	Err   error
}

// Camera runs the capture-and-analyze loop in a background goroutine
type Camera struct {
	open     capture.Opener
	analyzer FrameAnalyzer
	session  *Session
	config   CameraConfig
	logger   *slog.Logger

	updates   chan Update
	processed atomic.Int64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	err     error
}

// NewCamera creates a controller; frames come from open and results go into sess
func NewCamera(open capture.Opener, fa FrameAnalyzer, sess *Session, config CameraConfig, logger *slog.Logger) *Camera {
	if config.ProcessEveryNth < 1 {
		config.ProcessEveryNth = 1
	}
	if config.RefreshEvery < 1 {
		config.RefreshEvery = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Camera{
		open:     open,
		analyzer: fa,
		session:  sess,
		config:   config,
		logger:   logger,
		updates:  make(chan Update, 1),
	}
}

// Updates delivers the most recent snapshot; stale snapshots are dropped
func (c *Camera) Updates() <-chan Update {
	return c.updates
}

// Processed returns the number of frames analyzed in the current or last run
func (c *Camera) Processed() int {
	return int(c.processed.Load())
}

// Running reports whether the capture loop is active
func (c *Camera) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Err returns the error that ended the last run, if any
func (c *Camera) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Start opens the source and launches the loop. On failure nothing changes.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	src, err := c.open()
	if err != nil {
		return fmt.Errorf("failed to open frame source: %w", err)
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.running = true
	c.err = nil
	c.processed.Store(0)

	go c.loop(ctx, src, c.stop, c.done)

	c.logger.Info("camera started")
	return nil
}

// Stop signals the loop and waits for it to exit. Safe to call when stopped.
func (c *Camera) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop = nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	c.logger.Info("camera stopped", "processed", c.Processed())
}

// Wait blocks until the current run ends
func (c *Camera) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (c *Camera) loop(ctx context.Context, src capture.Source, stop <-chan struct{}, done chan<- struct{}) {
	var (
		last    *analyzer.Result
		frames  int
		loopErr error
	)

	defer close(done)
	defer func() {
		c.mu.Lock()
		c.running = false
		c.err = loopErr
		c.mu.Unlock()
	}()
	defer func() {
		c.publish(c.snapshot(last, true, loopErr))
	}()
	defer func() {
		if err := src.Close(); err != nil {
			c.logger.Warn("failed to close frame source", "error", err)
		}
	}()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		frame, err := src.Read(ctx)
		if err != nil {
			switch {
			case errors.Is(err, capture.ErrEndOfStream):
				c.logger.Info("frame source exhausted", "frames", frames)
			case ctx.Err() != nil:
			default:
				c.logger.Error("failed to read frame", "error", err)
				loopErr = err
			}
			return
		}
		frames++

		if frames%c.config.ProcessEveryNth == 0 {
			res, err := c.analyzer.Analyze(ctx, frame)
			if err != nil {
				c.logger.Error("frame analysis failed", "frame", frames, "error", err)
				loopErr = err
				return
			}

			c.session.Append(res.Records...)
			last = res
			if n := c.processed.Add(1); n%int64(c.config.RefreshEvery) == 0 {
				c.publish(c.snapshot(last, false, nil))
			}
		}

		if c.config.FrameInterval > 0 {
			t := time.NewTimer(c.config.FrameInterval)
			select {
			case <-stop:
				t.Stop()
				return
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
	}
}

func (c *Camera) snapshot(res *analyzer.Result, final bool, err error) Update {
	u := Update{
		Total:     c.session.Len(),
		Processed: c.Processed(),
		Final:     final,
		Err:       err,
	}
	if res != nil {
		u.Frame = res.Annotated
		u.Records = res.Records
	}
	return u
}

// publish replaces any unread update with u
func (c *Camera) publish(u Update) {
	for {
		select {
		case c.updates <- u:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}
