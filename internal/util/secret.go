package util

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// Secret holds a credential. Every formatting path prints a placeholder; only
// Reveal returns the raw value.
type Secret struct {
	value string
}

func NewSecret(value string) Secret {
	return Secret{value: value}
}

func (s Secret) Reveal() string {
	return s.value
}

func (s Secret) IsEmpty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	if s.value == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return fmt.Sprintf("util.Secret(%q)", s.String())
}

// Format covers %v, %+v, %s, %q and friends, which would otherwise print struct fields.
func (s Secret) Format(f fmt.State, verb rune) {
	switch verb {
	case 'q':
		fmt.Fprintf(f, "%q", s.String())
	default:
		fmt.Fprint(f, s.String())
	}
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// redactingCore scrubs raw secret values from entry messages and string-ish
// fields before they reach the wrapped core.
type redactingCore struct {
	zapcore.Core
	replacer *strings.Replacer
}

// NewRedactingCore wraps core so that the raw values of secrets never reach it.
// Empty secrets are ignored; if none remain the core is returned unchanged.
func NewRedactingCore(core zapcore.Core, secrets ...Secret) zapcore.Core {
	pairs := make([]string, 0, len(secrets)*2)
	for _, s := range secrets {
		if s.IsEmpty() {
			continue
		}
		pairs = append(pairs, s.value, redacted)
	}
	if len(pairs) == 0 {
		return core
	}
	return &redactingCore{Core: core, replacer: strings.NewReplacer(pairs...)}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.scrubFields(fields)), replacer: c.replacer}
}

func (c *redactingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *redactingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = c.replacer.Replace(entry.Message)
	return c.Core.Write(entry, c.scrubFields(fields))
}

func (c *redactingCore) scrubFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case zapcore.StringType:
			f.String = c.replacer.Replace(f.String)
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok && err != nil {
				f = zap.String(f.Key, c.replacer.Replace(err.Error()))
			}
		case zapcore.StringerType:
			if s, ok := f.Interface.(fmt.Stringer); ok && s != nil {
				f = zap.String(f.Key, c.replacer.Replace(s.String()))
			}
		case zapcore.ByteStringType:
			if b, ok := f.Interface.([]byte); ok {
				f = zap.ByteString(f.Key, []byte(c.replacer.Replace(string(b))))
			}
		}
		out[i] = f
	}
	return out
}
