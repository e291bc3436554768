package gorm_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	adapter "github.com/namesdb/namesdb/internal/logger/adapter/gorm"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"ERROR":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"":        gormlogger.Warn,
		"verbose": gormlogger.Warn,
	}

	for in, want := range tests {
		assert.Equal(t, want, adapter.ParseLevel(in), in)
	}
}

func TestTrace(t *testing.T) {
	statement := func() (string, int64) { return "INSERT INTO names (name) VALUES (\"Alice\")", 1 }

	tests := []struct {
		name      string
		level     string
		begin     time.Time
		err       error
		wantLevel string
	}{
		{name: "silent logs nothing", level: "silent", err: errors.New("boom")},
		{name: "error is logged at error", level: "error", err: errors.New("boom"), wantLevel: "error"},
		{name: "record not found is not an error", level: "error", err: gormlogger.ErrRecordNotFound},
		{name: "slow statement is a warning", level: "warn", begin: time.Now().Add(-time.Second), wantLevel: "warn"},
		{name: "fast statement at warn logs nothing", level: "warn"},
		{name: "info logs every statement at debug", level: "info", wantLevel: "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			l := adapter.NewWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel), tt.level)

			begin := tt.begin
			if begin.IsZero() {
				begin = time.Now()
			}

			l.Trace(context.Background(), begin, statement, tt.err)

			if tt.wantLevel == "" {
				assert.Empty(t, buf.String())
				return
			}

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.wantLevel, line["level"])
			assert.Equal(t, "gorm", line["component"])
			assert.Contains(t, line["sql"], "INSERT INTO names")
		})
	}
}

func TestLogMode(t *testing.T) {
	var buf bytes.Buffer

	l := adapter.NewWithLogger(zerolog.New(&buf), "silent")
	l.Info(context.Background(), "hidden %d", 1)
	assert.Empty(t, buf.String())

	l.LogMode(gormlogger.Info).Info(context.Background(), "shown %d", 2)
	assert.Contains(t, buf.String(), "shown 2")
}
