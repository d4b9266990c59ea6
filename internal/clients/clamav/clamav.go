package clamav

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/studyarc/resourcebank-backend/internal/platform/envutil"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

// Scanner is the virus-scan oracle: clean or infected, nothing in between.
// Scan errors are returned as errors, not as a verdict, so callers can decide
// whether to fail closed.
type Scanner interface {
	Scan(ctx context.Context, data []byte) (clean bool, err error)
}

// clamdScanner speaks the clamd INSTREAM protocol over TCP.
type clamdScanner struct {
	log     *logger.Logger
	addr    string
	timeout time.Duration
}

func NewScanner(log *logger.Logger) Scanner {
	return &clamdScanner{
		log:     log.With("service", "ClamAVScanner"),
		addr:    envutil.String("CLAMD_ADDR", "localhost:3310"),
		timeout: envutil.Duration("CLAMD_TIMEOUT", 30*time.Second),
	}
}

func (s *clamdScanner) Scan(ctx context.Context, data []byte) (bool, error) {
	d := net.Dialer{Timeout: s.timeout}
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return false, fmt.Errorf("dial clamd %s: %w", s.addr, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(s.timeout))

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return false, fmt.Errorf("clamd INSTREAM: %w", err)
	}

	// Stream in length-prefixed chunks, terminated by a zero-length chunk.
	const chunkSize = 1 << 20
	var size [4]byte
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		binary.BigEndian.PutUint32(size[:], uint32(end-off))
		if _, err := conn.Write(size[:]); err != nil {
			return false, fmt.Errorf("clamd chunk header: %w", err)
		}
		if _, err := conn.Write(data[off:end]); err != nil {
			return false, fmt.Errorf("clamd chunk body: %w", err)
		}
	}
	binary.BigEndian.PutUint32(size[:], 0)
	if _, err := conn.Write(size[:]); err != nil {
		return false, fmt.Errorf("clamd terminator: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		return false, fmt.Errorf("clamd response: %w", err)
	}
	reply := strings.TrimSpace(strings.TrimSuffix(buf.String(), "\x00"))
	switch {
	case strings.HasSuffix(reply, "OK"):
		return true, nil
	case strings.Contains(reply, "FOUND"):
		s.log.Warn("clamd detection", "reply", reply)
		return false, nil
	default:
		return false, fmt.Errorf("clamd unexpected reply: %q", reply)
	}
}

// NoopScanner accepts everything. Used when CLAMD_ADDR is unset in
// development.
type NoopScanner struct{}

func (NoopScanner) Scan(ctx context.Context, data []byte) (bool, error) { return true, nil }
