package ingestor

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	lj "github.com/elastic/go-lumber/lj"
	srv2 "github.com/elastic/go-lumber/server/v2"
)

// Line is one G-code line received from a remote sender, stripped of its
// trailing delimiter.
type Line struct {
	Text   string
	Source string
}

// --- TCP Ingestor using go-lumber v2 ---

// TCPIngestor accepts lumberjack v2 batches whose events carry one G-code
// line each in the "message" field. Senders (machine controllers, log
// shippers) stream program lines as they execute them.
type TCPIngestor struct {
	listener    net.Listener
	readTimeout time.Duration // for server
	events      chan *lj.Batch
	server      *srv2.Server
}

func NewTCPIngestor(addr string, readTimeout time.Duration) (*TCPIngestor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &TCPIngestor{
		listener:    ln,
		readTimeout: readTimeout,
		events:      make(chan *lj.Batch, 1000),
	}, nil
}

// Accept starts the lumberjack v2 Server.
func (ing *TCPIngestor) Accept() error {
	srv, err := srv2.NewWithListener(
		ing.listener,
		srv2.Timeout(ing.readTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create lumberjack server: %w", err)
	}
	ing.server = srv

	// Pull batches off ReceiveChan and ack them.
	go func() {
		for batch := range ing.server.ReceiveChan() {
			ing.events <- batch
			batch.ACK()
		}
		close(ing.events)
	}()

	return nil
}

// parseEvent extracts one G-code line from a lumberjack event.
func parseEvent(evt map[string]interface{}, out *Line) error {
	msg, ok := evt["message"].(string)
	if !ok {
		return errors.New("missing message field")
	}

	// Senders that frame whole lines still include the delimiter sometimes;
	// strip one trailing newline so the tokenizer sees a bare line.
	msg = strings.TrimSuffix(msg, "\n")
	out.Text = msg

	if src, ok := evt["source"].(string); ok {
		out.Source = src
	}
	return nil
}

// ReadBatch drains every queued batch without blocking and returns the
// extracted lines. Events without a message field are dropped.
func (ing *TCPIngestor) ReadBatch() ([]Line, error) {
	var out []Line

	for {
		select {
		case batch, ok := <-ing.events:
			if !ok {
				return out, nil
			}
			for _, evt := range batch.Events {
				if m, ok := evt.(map[string]interface{}); ok {
					var line Line
					if err := parseEvent(m, &line); err == nil {
						out = append(out, line)
					}
				}
			}
		default:
			// Channel is empty, return what we have
			return out, nil
		}
	}
}

func (ing *TCPIngestor) IsClosed() bool {
	if ing.server == nil {
		return true
	}
	select {
	case batch, ok := <-ing.events:
		if !ok {
			return true
		}
		// Put the batch back — avoid losing data
		ing.events <- batch
		return false
	default:
		return false
	}
}

// Close shuts down the server and listener.
func (ing *TCPIngestor) Close() error {
	if ing.server != nil {
		// The lumberjack server owns the listener once Accept ran and
		// closes it itself.
		return ing.server.Close()
	}
	return ing.listener.Close()
}
