package mumbleclient

import "log"

// Logger is the five-level logging sink spec §6 names as an
// embedder-supplied collaborator: "a logging sink with levels {trace,
// debug, info, warn, error}". The core never assumes a concrete backend;
// every subsystem logs through whatever Logger the Client was constructed
// with.
type Logger interface {
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// stdLogger adapts the standard library log package to Logger, matching
// the teacher's own practice of plain, prefixed log.Printf("[tag] ...")
// calls rather than a structured logging framework (client/audio.go,
// client/transport.go).
type stdLogger struct{}

func (stdLogger) Tracef(format string, args ...any) { log.Printf("[trace] "+format, args...) }
func (stdLogger) Debugf(format string, args ...any) { log.Printf("[debug] "+format, args...) }
func (stdLogger) Infof(format string, args ...any)  { log.Printf("[info] "+format, args...) }
func (stdLogger) Warnf(format string, args ...any)  { log.Printf("[warn] "+format, args...) }
func (stdLogger) Errorf(format string, args ...any) { log.Printf("[error] "+format, args...) }
