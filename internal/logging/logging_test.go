package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONCarriesRunID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Options{Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	logger.Info("step done")
	require.NoError(t, logger.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "step done", line["msg"])
	assert.Len(t, line["run_id"], 8)
}

func TestNew_DebugLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		debug     bool
		wantDebug bool
	}{
		"info by default": {debug: false, wantDebug: false},
		"debug enabled":   {debug: true, wantDebug: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger, err := New(Options{Debug: tt.debug, Output: &buf})
			require.NoError(t, err)

			logger.Debug("running command")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("running command")))
		})
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Format: "xml"})
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}

func TestNew_Quiet(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts     Options
		wantInfo bool
		wantWarn bool
	}{
		"quiet hides info":  {opts: Options{Quiet: true}, wantInfo: false, wantWarn: true},
		"debug beats quiet": {opts: Options{Quiet: true, Debug: true}, wantInfo: true, wantWarn: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.opts.Output = &buf
			logger, err := New(tt.opts)
			require.NoError(t, err)

			logger.Info("step started")
			logger.Warn("ignoring non-zero exit")
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("step started")))
			assert.Equal(t, tt.wantWarn, bytes.Contains(buf.Bytes(), []byte("ignoring non-zero exit")))
		})
	}
}
