package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zmcp/odata-edm/internal/constants"
	"github.com/zmcp/odata-edm/internal/edm"
)

// TraceLogger records codec operations as JSON lines for debugging
type TraceLogger struct {
	mu       sync.Mutex
	log      *logrus.Logger
	file     *os.File
	enabled  bool
	filename string
}

// NewTraceLogger creates a trace logger writing to a timestamped file in
// the temp directory. A disabled logger discards everything.
func NewTraceLogger(enabled bool) (*TraceLogger, error) {
	return NewTraceLoggerIn(os.TempDir(), enabled)
}

// NewTraceLoggerIn is NewTraceLogger with an explicit directory
func NewTraceLoggerIn(dir string, enabled bool) (*TraceLogger, error) {
	if !enabled {
		return &TraceLogger{enabled: false}, nil
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s_%d.jsonl", constants.DefaultTraceDirPrefix, timestamp, os.Getpid()))

	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(file)
	log.SetLevel(logrus.TraceLevel)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	logger := &TraceLogger{
		log:      log,
		file:     file,
		enabled:  enabled,
		filename: filename,
	}

	logger.Log(logrus.TraceLevel, "Trace logging started", logrus.Fields{
		"filename": filename,
		"pid":      os.Getpid(),
	})

	return logger, nil
}

// Log writes a trace entry
func (t *TraceLogger) Log(level logrus.Level, message string, fields logrus.Fields) {
	if !t.enabled || t.log == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.log.WithFields(fields).Log(level, message)
	t.file.Sync() // Force write to disk
}

// LogParse records one ValueOfString call
func (t *TraceLogger) LogParse(kind edm.Kind, literal *string, facets edm.Facets, value any, err error) {
	fields := logrus.Fields{
		"kind":    kind.FullQualifiedName(),
		"literal": literalField(literal),
		"facets":  facets,
	}
	if err != nil {
		fields["error"] = err.Error()
		fields["error_kind"] = edm.KindOf(err).String()
		t.Log(logrus.WarnLevel, "parse failed", fields)
		return
	}
	fields["value"] = fmt.Sprintf("%v", value)
	fields["host_type"] = fmt.Sprintf("%T", value)
	t.Log(logrus.TraceLevel, "parse", fields)
}

// LogFormat records one ValueToString call
func (t *TraceLogger) LogFormat(kind edm.Kind, value any, facets edm.Facets, literal *string, err error) {
	fields := logrus.Fields{
		"kind":      kind.FullQualifiedName(),
		"host_type": fmt.Sprintf("%T", value),
		"facets":    facets,
	}
	if err != nil {
		fields["error"] = err.Error()
		fields["error_kind"] = edm.KindOf(err).String()
		t.Log(logrus.WarnLevel, "format failed", fields)
		return
	}
	fields["literal"] = literalField(literal)
	t.Log(logrus.TraceLevel, "format", fields)
}

// Observe records one property conversion of a payload; literals of
// sensitive properties are masked
func (t *TraceLogger) Observe(path string, kind edm.Kind, literal *string, err error) {
	fields := logrus.Fields{
		"path": path,
		"kind": kind.FullQualifiedName(),
	}
	if literal != nil {
		fields["literal"] = MaskLiteral(path, *literal)
	}
	if err != nil {
		fields["error"] = err.Error()
		fields["error_kind"] = edm.KindOf(err).String()
		t.Log(logrus.WarnLevel, "property failed", fields)
		return
	}
	t.Log(logrus.TraceLevel, "property", fields)
}

// LogError logs an error with context
func (t *TraceLogger) LogError(context string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["error"] = err.Error()
	t.Log(logrus.ErrorLevel, context, fields)
}

// GetFilename returns the trace filename
func (t *TraceLogger) GetFilename() string {
	return t.filename
}

// Close closes the trace file
func (t *TraceLogger) Close() error {
	if t.file != nil {
		t.Log(logrus.TraceLevel, "Trace logging stopped", nil)
		return t.file.Close()
	}
	return nil
}

func literalField(literal *string) any {
	if literal == nil {
		return nil
	}
	return TruncateLiteral(*literal, MaxLiteralLength)
}
