package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestZapLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		elapsed   time.Duration
		err       error
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{
			name:      "failed query",
			level:     gormlogger.Warn,
			err:       errors.New("connection reset"),
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "query failed",
		},
		{
			name:    "record not found is silent",
			level:   gormlogger.Warn,
			err:     gorm.ErrRecordNotFound,
			wantMsg: "",
		},
		{
			name:      "slow query",
			level:     gormlogger.Warn,
			elapsed:   2 * time.Second,
			wantLevel: zapcore.WarnLevel,
			wantMsg:   "slow query",
		},
		{
			name:    "fast query at warn level",
			level:   gormlogger.Warn,
			wantMsg: "",
		},
		{
			name:      "fast query at info level",
			level:     gormlogger.Info,
			wantLevel: zapcore.DebugLevel,
			wantMsg:   "query",
		},
		{
			name:    "silent",
			level:   gormlogger.Silent,
			err:     errors.New("boom"),
			wantMsg: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			l := newZapLogger(zap.New(core), time.Second).LogMode(tt.level)

			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), query, tt.err)

			if tt.wantMsg == "" {
				assert.Zero(t, logs.Len())
				return
			}
			entries := logs.All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tt.wantMsg, entries[0].Message)
				assert.Equal(t, tt.wantLevel, entries[0].Level)
				assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
			}
		})
	}
}

func TestZapLogger_LogModeCopies(t *testing.T) {
	base := newZapLogger(zap.NewNop(), time.Second)
	quiet := base.LogMode(gormlogger.Silent)

	assert.Equal(t, gormlogger.Warn, base.level)
	assert.Equal(t, gormlogger.Silent, quiet.(*zapLogger).level)
}
