package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level orders entries by severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR"}

func (l Level) String() string {
	if l < DEBUG || l > ERROR {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts level names in any case, plus "warning"
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WARN, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Fields are key/value pairs attached to an entry
type Fields map[string]any

func (f Fields) merge(other Fields) Fields {
	out := make(Fields, len(f)+len(other))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Entry is the JSON shape of one log line
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Fields  Fields    `json:"fields,omitempty"`
}

// output is shared between a logger and every logger derived from it
type output struct {
	mu   sync.Mutex
	w    io.Writer
	file *os.File
}

func (o *output) write(b []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = o.w.Write(b)
}

// Logger writes leveled entries as text or JSON lines. Loggers returned by
// WithField and WithFields share the parent's output.
type Logger struct {
	level  Level
	json   bool
	fields Fields
	out    *output
	now    func() time.Time
}

// NewLogger writes to stderr so stdout stays free for command output
func NewLogger(level Level, jsonFormat bool) *Logger {
	return &Logger{
		level: level,
		json:  jsonFormat,
		out:   &output{w: os.Stderr},
		now:   time.Now,
	}
}

// NewFileLogger appends to path, creating parent directories, and mirrors
// every entry to mirror unless it is nil.
func NewFileLogger(path string, mirror io.Writer, level Level, jsonFormat bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	l := NewLogger(level, jsonFormat)
	l.out.w = f
	if mirror != nil {
		l.out.w = io.MultiWriter(f, mirror)
	}
	l.out.file = f
	return l, nil
}

// SetOutput redirects this logger and its relatives
func (l *Logger) SetOutput(w io.Writer) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.w = w
}

// Enabled reports whether entries at level are written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) Debug(msg string, fields ...Fields) { l.write(DEBUG, msg, fields) }
func (l *Logger) Info(msg string, fields ...Fields)  { l.write(INFO, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Fields)  { l.write(WARN, msg, fields) }
func (l *Logger) Error(msg string, fields ...Fields) { l.write(ERROR, msg, fields) }

func (l *Logger) write(level Level, msg string, extra []Fields) {
	if !l.Enabled(level) {
		return
	}
	fields := l.fields
	for _, f := range extra {
		fields = fields.merge(f)
	}

	var line []byte
	if l.json {
		b, err := json.Marshal(Entry{Time: l.now(), Level: level.String(), Message: msg, Fields: fields})
		if err != nil {
			b = []byte(fmt.Sprintf(`{"level":"ERROR","message":"unencodable log entry: %s"}`, err))
		}
		line = append(b, '\n')
	} else {
		line = []byte(fmt.Sprintf("[%s] %s: %s%s\n", l.now().Format("2006-01-02 15:04:05"), level, msg, textFields(fields)))
	}
	l.out.write(line)
}

func textFields(fields Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(Fields{key: value})
}

func (l *Logger) WithFields(fields Fields) *Logger {
	child := *l
	child.fields = l.fields.merge(fields)
	return &child
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.out.file == nil {
		return nil
	}
	return l.out.file.Close()
}
