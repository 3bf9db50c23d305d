package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// StdoutLogger is the standard output logger for printing all logs into the commandline.
//
// NOTE: Messages below 'MinLevel' are discarded; the zero value prints everything.
type StdoutLogger struct {
	MinLevel Level

	// Writer overrides the destination, defaults to stdout.
	Writer io.Writer

	lock sync.Mutex
}

// Log method for the StdoutLogger which adds prefix dependant on the level and prints message inputted to terminal.
func (s *StdoutLogger) Log(level Level, msg string, args ...any) {
	if level < s.MinLevel {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	writer := s.Writer
	if writer == nil {
		writer = os.Stdout
	}

	fmt.Fprintln(writer, time.Now().Format(time.RFC3339Nano)+" "+level.String()+": "+fmt.Sprintf(msg, args...))
}
