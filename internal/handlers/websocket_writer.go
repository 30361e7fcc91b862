package handlers

import (
	"strings"
	"sync"

	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor/levels"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"

	"github.com/ternarybob/vendo/internal/common"
)

// Buffer size for the WebSocket log queue
const defaultWebSocketBufferSize = 1000

// defaultExcludePatterns drops log lines that would echo forever: the
// WebSocket machinery logging about itself feeds back into this writer.
var defaultExcludePatterns = []string{
	"WebSocket client connected",
	"WebSocket client disconnected",
	"HTTP request",
	"HTTP response",
	"Publishing event",
}

// WebSocketWriter is an arbor writer that broadcasts log lines to connected
// dashboard clients through the WebSocket handler. It consumes log batches
// from the channel arbor is pointed at via SetChannel.
type WebSocketWriter struct {
	handler         *WebSocketHandler
	writer          writers.IChannelWriter
	config          models.WriterConfiguration
	minLevel        levels.LogLevel
	excludePatterns []string
	channel         chan []models.LogEvent
	done            chan struct{}
	wg              sync.WaitGroup
	closeOnce       sync.Once
}

// NewWebSocketWriter creates a new WebSocket arbor writer using the
// ChannelWriter pattern.
func NewWebSocketWriter(handler *WebSocketHandler, config models.WriterConfiguration, wsConfig *common.WebSocketConfig) (*WebSocketWriter, error) {
	minLevel := levels.InfoLevel
	excludePatterns := defaultExcludePatterns

	if wsConfig != nil {
		minLevel = parseLogLevel(wsConfig.MinLevel)
		if len(wsConfig.ExcludePatterns) > 0 {
			excludePatterns = wsConfig.ExcludePatterns
		}
	}

	w := &WebSocketWriter{
		handler:         handler,
		config:          config,
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
		channel:         make(chan []models.LogEvent, 10),
		done:            make(chan struct{}),
	}

	cw, err := writers.NewChannelWriter(config, defaultWebSocketBufferSize, w.process)
	if err != nil {
		return nil, err
	}
	cw.Start()

	w.writer = cw
	return w, nil
}

// process filters one log event and pushes it to connected clients
func (w *WebSocketWriter) process(entry models.LogEvent) error {
	arborLevel := plogToArborLevel(entry.Level)
	if arborLevel < w.minLevel {
		return nil
	}

	for _, pattern := range w.excludePatterns {
		if strings.Contains(entry.Message, pattern) {
			return nil
		}
	}

	w.handler.BroadcastLog(LogEntry{
		Timestamp: entry.Timestamp.Format("15:04:05"),
		Level:     levelLabel(arborLevel),
		Message:   entry.Message,
	})
	return nil
}

// GetChannel returns the channel for arbor to send log batches to
func (w *WebSocketWriter) GetChannel() chan []models.LogEvent {
	return w.channel
}

// Start launches the batch consumer goroutine
func (w *WebSocketWriter) Start() {
	w.wg.Add(1)
	go w.consume()
}

func (w *WebSocketWriter) consume() {
	defer w.wg.Done()

	for {
		select {
		case batch, ok := <-w.channel:
			if !ok {
				return
			}
			for _, entry := range batch {
				w.process(entry)
			}
		case <-w.done:
			return
		}
	}
}

// plogToArborLevel converts phuslu/log.Level to arbor levels.LogLevel
func plogToArborLevel(level plog.Level) levels.LogLevel {
	switch level {
	case plog.ErrorLevel:
		return levels.ErrorLevel
	case plog.WarnLevel:
		return levels.WarnLevel
	case plog.InfoLevel:
		return levels.InfoLevel
	case plog.DebugLevel:
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// parseLogLevel converts a config string to arbor levels.LogLevel
func parseLogLevel(level string) levels.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return levels.ErrorLevel
	case "warn", "warning":
		return levels.WarnLevel
	case "info":
		return levels.InfoLevel
	case "debug":
		return levels.DebugLevel
	default:
		return levels.InfoLevel
	}
}

// levelLabel maps arbor log levels to UI strings
func levelLabel(level levels.LogLevel) string {
	switch level {
	case levels.ErrorLevel:
		return "error"
	case levels.WarnLevel:
		return "warn"
	case levels.InfoLevel:
		return "info"
	case levels.DebugLevel:
		return "debug"
	default:
		return "info"
	}
}

// Write implements the IWriter interface - delegates to the channel writer
func (w *WebSocketWriter) Write(data []byte) (int, error) {
	return w.writer.Write(data)
}

// WithLevel updates the minimum log level and returns self
func (w *WebSocketWriter) WithLevel(level plog.Level) writers.IWriter {
	w.minLevel = plogToArborLevel(level)
	return w
}

// GetFilePath returns empty string (not file-based)
func (w *WebSocketWriter) GetFilePath() string {
	return ""
}

// Close stops the batch consumer and drains the channel writer buffer
func (w *WebSocketWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
	return w.writer.Close()
}
