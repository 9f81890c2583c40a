package logger

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// LogError writes err and its unwrap chain with the context fields.
func LogError(ctx context.Context, msg string, err error, captureStack bool) {
	if err == nil {
		return
	}

	fields := []interface{}{
		"error_message", err.Error(),
		"error_type", fmt.Sprintf("%T", err),
	}
	if chain := UnwrapError(err); len(chain) > 1 {
		fields = append(fields, "error_chain", chain)
	}
	if captureStack {
		// 跳过 runtime.Callers、captureStackTrace 与 LogError
		fields = append(fields, "stack_trace", captureStackTrace(3))
	}

	GetLogger(ctx).Errorw(msg, fields...)
}

// LogWarn writes a warning with the context fields.
func LogWarn(ctx context.Context, msg string, keysAndValues ...interface{}) {
	GetLogger(ctx).Warnw(msg, keysAndValues...)
}

// LogInfo writes an info line with the context fields.
func LogInfo(ctx context.Context, msg string, keysAndValues ...interface{}) {
	GetLogger(ctx).Infow(msg, keysAndValues...)
}

// UnwrapError returns the messages of err and of every error it wraps.
func UnwrapError(err error) []string {
	var messages []string
	for err != nil {
		messages = append(messages, err.Error())
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return messages
}

func captureStackTrace(skip int) string {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s:%d %s", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}
