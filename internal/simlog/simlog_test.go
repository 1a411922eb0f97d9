package simlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orbitfold/constellation-sim/internal/power"
	"github.com/orbitfold/constellation-sim/internal/radio"
	"github.com/orbitfold/constellation-sim/internal/simtime"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"error": LevelError,
		"warn":  LevelWarn,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"logic": LevelLogic,
		"all":   LevelAll,
		"ALL":   LevelAll,
	}
	for s, want := range cases {
		got, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Fatal("ParseLevel(bogus) should error")
	}
}

func TestNewWritesHeaderAndCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	l, err := New(dir, "node1", LevelAll, 4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Log_node1.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.HasPrefix(string(data), "logType,timestamp,modelName,message\n") {
		t.Fatalf("unexpected header: %q", string(data))
	}
}

func TestWriteLogRejectsDoubleQuote(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "node1", LevelAll, 4096)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if err := l.WriteLog(`bad "quote"`, LevelInfo, simtime.Time{}, "ModelX"); err == nil {
		t.Fatal("WriteLog with a double quote should error")
	}
}

func TestWriteLogRespectsLevelGate(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "node1", LevelWarn, 1) // chunk size 1: flush immediately
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	if err := l.WriteLog("debug message", LevelDebug, simtime.Time{}, "ModelX"); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if err := l.WriteLog("warn message", LevelWarn, simtime.Time{}, "ModelX"); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	l.Close()

	data, err := os.ReadFile(filepath.Join(dir, "Log_node1.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), "debug message") {
		t.Fatal("a LevelWarn logger should not record a LevelDebug message")
	}
	if !strings.Contains(string(data), "warn message") {
		t.Fatal("a LevelWarn logger should record a LevelWarn message")
	}
}

func TestChunkFlushOnOverflow(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "node1", LevelAll, 10_000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := l.WriteLog("small", LevelInfo, simtime.Time{}, "ModelX"); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}

	path := filepath.Join(dir, "Log_node1.log")
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "small") {
		t.Fatal("message should still be buffered, not yet flushed to disk")
	}

	l.Close()
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "small") {
		t.Fatal("Close should flush the buffered remainder")
	}
}

func TestLogPowerStatsAndRadioEventAndMACEvent(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "node1", LevelAll, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.LogPowerStats(power.Stats{CurrentCharge: 12.5, ChargeGenerated: 1.2})
	l.LogRadioEvent(radio.Event{Action: "send", FrameID: 7, Success: true})
	l.LogMACEvent(3, "await-ack", "retransmit")

	data, err := os.ReadFile(filepath.Join(dir, "Log_node1.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	for _, want := range []string{"ModelPower", "ModelRadio", "ModelMAC", "NTA"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %s", want, out)
		}
	}
}
