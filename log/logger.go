package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

// Level controls logger verbosity. Levels marshal to and from their lower
// case names so they can be used directly in configuration files.
type Level uint8

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levels = [...]struct {
	name    string
	backend logging.Level
}{
	Debug:   {"debug", logging.DEBUG},
	Info:    {"info", logging.INFO},
	Notice:  {"notice", logging.NOTICE},
	Warning: {"warning", logging.WARNING},
	Error:   {"error", logging.ERROR},
}

func (l Level) String() string {
	if int(l) < len(levels) {
		return levels[l].name
	}
	return fmt.Sprintf("level(%d)", uint8(l))
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Parse a level name. "warn" is accepted as an alias for "warning".
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warn" {
		return Warning, nil
	}
	for lvl, def := range levels {
		if def.name == name {
			return Level(lvl), nil
		}
	}
	return Notice, fmt.Errorf("log: unknown level %q", name)
}

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

// Backend state. Levels are kept outside the go-logging backend so they
// survive a sink change.
var (
	mu             sync.Mutex
	leveledBackend logging.LeveledBackend
	defaultLevel   = Notice
	moduleLevels   = map[string]Level{}
)

// The logger interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a new named logger.
func New(module string) Logger {
	return logging.MustGetLogger(module)
}

// Redirect all log output to sink.
func SetSink(sink io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	backend := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	leveledBackend = logging.AddModuleLevel(backend)
	logging.SetBackend(leveledBackend)
	applyLevels()
}

// Set the verbosity of every module without an explicit override.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()

	defaultLevel = level
	applyLevels()
}

// Override the verbosity of a single module.
func SetModuleLevel(module string, level Level) {
	mu.Lock()
	defer mu.Unlock()

	moduleLevels[module] = level
	applyLevels()
}

// Drop all module overrides.
func ResetModuleLevels() {
	mu.Lock()
	defer mu.Unlock()

	moduleLevels = map[string]Level{}
	applyLevels()
}

func applyLevels() {
	leveledBackend.SetLevel(levels[defaultLevel].backend, "")
	for module, level := range moduleLevels {
		leveledBackend.SetLevel(levels[level].backend, module)
	}
}

func init() {
	SetSink(os.Stdout)
}
