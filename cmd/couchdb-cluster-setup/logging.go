package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/couchbase/couchdb-cluster-setup/clustersetup"
	"github.com/couchbase/couchdb-cluster-setup/log"
)

// Values accepted by '--log-format'.
const (
	logFormatText   = "text"
	logFormatJSON   = "json"
	logFormatStdout = "stdout"
)

// newLogger returns a logger writing to the given writer in the requested format.
func newLogger(level, format string, writer io.Writer) (log.Logger, error) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return nil, clustersetup.NewConfigError("log level", err)
	}

	handlerOptions := &slog.HandlerOptions{Level: log.SlogLevel(parsed)}

	switch format {
	case logFormatText:
		return log.NewSlogLogger(slog.NewTextHandler(writer, handlerOptions)), nil
	case logFormatJSON:
		return log.NewSlogLogger(slog.NewJSONHandler(writer, handlerOptions)), nil
	case logFormatStdout:
		return &log.StdoutLogger{MinLevel: parsed, Writer: writer}, nil
	}

	return nil, clustersetup.NewConfigError("log format", fmt.Errorf("unknown log format '%s'", format))
}
