// Package testutil contains helpers shared by the tests and test servers of the other packages.
package testutil

import (
	"io"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

// EncodeJSON writes the given value to the writer as JSON, failing the test on error.
func EncodeJSON(t *testing.T, writer io.Writer, value any) {
	require.NoError(t, jsoniter.NewEncoder(writer).Encode(value))
}

// DecodeJSON decodes JSON from the reader into the given value, failing the test on error.
func DecodeJSON(t *testing.T, reader io.Reader, value any) {
	require.NoError(t, jsoniter.NewDecoder(reader).Decode(value))
}

// ReadAll reads everything from the given reader, failing the test on error.
func ReadAll(t *testing.T, reader io.Reader) []byte {
	data, err := io.ReadAll(reader)
	require.NoError(t, err)

	return data
}
