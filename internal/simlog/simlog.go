// Package simlog implements the per-node chunked CSV logger every model
// writes through, grounded on the original simulator's
// simlogging/loggerfilechunkwise.py: one file per node, a character-
// counting buffer that flushes to disk once it reaches a configured
// chunk size, and a final flush on close.
package simlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/orbitfold/constellation-sim/internal/mac"
	"github.com/orbitfold/constellation-sim/internal/power"
	"github.com/orbitfold/constellation-sim/internal/radio"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

// Level mirrors ELogType: lower values are handled by more restrictive
// loggers, LevelAll handles everything.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelLogic
	LevelAll
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "LOGERROR"
	case LevelWarn:
		return "LOGWARN"
	case LevelInfo:
		return "LOGINFO"
	case LevelDebug:
		return "LOGDEBUG"
	case LevelLogic:
		return "LOGLOGIC"
	case LevelAll:
		return "LOGALL"
	default:
		return "LOGUNKNOWN"
	}
}

// ParseLevel accepts the loglevel strings spec.md §6.1 names for a node.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "error":
		return LevelError, nil
	case "warn":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "logic":
		return LevelLogic, nil
	case "all":
		return LevelAll, nil
	default:
		return 0, fmt.Errorf("simlog: unknown log level %q", s)
	}
}

// Logger is one node's dedicated chunked CSV log file.
type Logger struct {
	mu sync.Mutex

	path      string
	level     Level
	file      *os.File
	buf       *bufio.Writer
	chunkSize int
	current   int
}

// New creates (or truncates) the log file at logDir/Log_<name>.log,
// writes the CSV header, and returns a Logger buffering at chunkSize
// characters before each flush. The directory is created if missing.
func New(logDir, name string, level Level, chunkSize int) (*Logger, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("simlog: chunk size must be positive, got %d", chunkSize)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("simlog: creating log dir %s: %w", logDir, err)
	}

	path := filepath.Join(logDir, "Log_"+name+".log")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("simlog: creating log file %s: %w", path, err)
	}

	l := &Logger{
		path:      path,
		level:     level,
		file:      f,
		buf:       bufio.NewWriter(f),
		chunkSize: chunkSize,
	}
	if _, err := l.buf.WriteString("logType,timestamp,modelName,message\n"); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// WriteLog appends one CSV line if level is handled by this logger's
// level gate, flushing to disk once the buffered chunk reaches the
// configured size. Mirrors loggerfilechunkwise.py's `>=` level check:
// a logger handles a message if its own level is LevelAll, matches
// exactly, or is numerically at or above the message's level.
func (l *Logger) WriteLog(message string, msgLevel Level, timestamp simtime.Time, modelName string) error {
	if l.level != LevelAll && l.level != msgLevel && l.level < msgLevel {
		return nil
	}
	if strings.Contains(message, `"`) {
		return fmt.Errorf("simlog: log message must not contain a double quote: %q", message)
	}
	if modelName == "" {
		modelName = "NMA"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s],%s,%s,\"%s\"\n", msgLevel, timestampOrNTA(timestamp), modelName, message)
	n, err := l.buf.WriteString(line)
	if err != nil {
		return err
	}
	l.current += n
	if l.current >= l.chunkSize {
		if err := l.buf.Flush(); err != nil {
			return err
		}
		l.current = 0
	}
	return nil
}

func timestampOrNTA(t simtime.Time) string {
	if t.Equal(simtime.Time{}) {
		return "NTA"
	}
	return t.String()
}

// Close flushes any buffered remainder and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.buf.Flush(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// LogPowerStats implements power.StatsSink.
func (l *Logger) LogPowerStats(s power.Stats) {
	msg := fmt.Sprintf("charge=%.3f generated=%.3f outOfPower=%v requested=%v granted=%v consumed=%v",
		s.CurrentCharge, s.ChargeGenerated, s.OutOfPower, s.Requested, s.Granted, s.Consumed)
	l.WriteLog(msg, LevelInfo, s.Timestamp, "ModelPower")
}

// LogRadioEvent implements radio.Sink.
func (l *Logger) LogRadioEvent(e radio.Event) {
	msg := fmt.Sprintf("action=%s frame=%d instance=%d success=%v collision=%v mtuDrop=%v busyDrop=%v "+
		"noChannelDrop=%v crbwDrop=%v txBusyDrop=%v plrDrop=%v perDrop=%v rssi=%.2f snr=%.2f toa=%.6f plr=%.4f per=%.4f peers=%d",
		e.Action, e.FrameID, e.InstanceID, e.Success, e.Collision, e.MTUDrop, e.BusyDrop,
		e.NoChannelDrop, e.CRBWDrop, e.TxBusyDrop, e.PLRDrop, e.PERDrop, e.RSSI, e.SNR, e.ToASeconds, e.PLR, e.PER, e.PeerCount)
	l.WriteLog(msg, LevelDebug, simtime.Time{}, "ModelRadio")
}

// LogMACEvent implements mac.Log.
func (l *Logger) LogMACEvent(nodeID int, state string, detail string) {
	msg := fmt.Sprintf("node=%d state=%s detail=%s", nodeID, state, detail)
	l.WriteLog(msg, LevelLogic, simtime.Time{}, "ModelMAC")
}

var (
	_ power.StatsSink = (*Logger)(nil)
	_ radio.Sink      = (*Logger)(nil)
	_ mac.Log         = (*Logger)(nil)
)
