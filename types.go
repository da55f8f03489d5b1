package vota

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging surface used by every component. Messages are
// followed by alternating key/value pairs.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore persists the raw session token between process runs.
// Load reports ok=false when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}

// SessionSource exposes the latest session snapshot.
type SessionSource interface {
	Current() Session
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Print(line("[ERR] VOTA ", format, args...))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Print(line("[WRN] VOTA ", format, args...))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Print(line("[INF] VOTA ", format, args...))
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Print(line("[DBG] VOTA ", format, args...))
}

func line(prefix, msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
