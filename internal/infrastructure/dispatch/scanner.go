package dispatch

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/smartprint/backend/internal/domain/shared"
)

// Scanner captures one raw payload from the code-scanning device. Scan
// blocks until a code is read or the context is done; implementations
// wrap the capture hardware and are swappable for tests.
type Scanner interface {
	Scan(ctx context.Context) (string, error)
	// Close releases the capture device
	Close() error
}

// AwaitTarget runs the scan loop: it reads payloads from the scanner
// until one resolves to a valid dispatch target. Invalid payloads keep
// the loop going; the context bounds the overall wait.
func AwaitTarget(ctx context.Context, scanner Scanner) (Target, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Target{}, err
		}

		payload, err := scanner.Scan(ctx)
		if err != nil {
			return Target{}, err
		}

		target, err := ResolveTarget(payload)
		if err == nil {
			return target, nil
		}
		// invalid payload, keep scanning
	}
}

// LineScanner reads newline-delimited payloads from a capture device
// exposed as a byte stream, such as a USB code scanner in serial mode
// or stdin during development. A background goroutine pumps lines so
// Scan can honor context cancellation.
type LineScanner struct {
	lines     chan string
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
	closer    io.Closer
}

// NewLineScanner creates a scanner reading from r. If r is also an
// io.Closer, Close closes it.
func NewLineScanner(r io.Reader) *LineScanner {
	s := &LineScanner{
		lines: make(chan string),
		errs:  make(chan error, 1),
		done:  make(chan struct{}),
	}
	if closer, ok := r.(io.Closer); ok {
		s.closer = closer
	}

	go func() {
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				select {
				case s.lines <- line:
				case <-s.done:
					return
				}
			}
			if err != nil {
				s.errs <- err
				return
			}
		}
	}()

	return s
}

// Scan implements the Scanner interface
func (s *LineScanner) Scan(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case payload := <-s.lines:
		return payload, nil
	case err := <-s.errs:
		if err == io.EOF {
			return "", shared.ErrInvalidTarget
		}
		return "", err
	}
}

// Close implements the Scanner interface. It stops the pump goroutine
// even when no Scan is in flight to receive its pending line.
func (s *LineScanner) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// ScriptedScanner emits a fixed sequence of payloads, for tests and
// development environments without a capture device.
type ScriptedScanner struct {
	Payloads []string
	Delay    time.Duration

	next int
}

// Scan implements the Scanner interface
func (s *ScriptedScanner) Scan(ctx context.Context) (string, error) {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if s.next >= len(s.Payloads) {
		return "", shared.ErrInvalidTarget
	}
	payload := s.Payloads[s.next]
	s.next++
	return payload, nil
}

// Close implements the Scanner interface
func (s *ScriptedScanner) Close() error {
	return nil
}
