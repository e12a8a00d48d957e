package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/recall/internal/config"
)

const redacted = "[REDACTED]"

// Secret creates a field for config.Secret that only reveals whether it is
// set and its length.
func Secret(key string, val config.Secret) zap.Field {
	if !val.IsSet() {
		return zap.String(key, "")
	}
	return RedactedString(key, val.Value())
}

// RedactedString creates a field with the value replaced by its length.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// redactingCore rewrites sensitive fields before they reach the wrapped core.
// Fields are matched by key (case-insensitive) and string values by pattern.
type redactingCore struct {
	zapcore.Core
	fields   map[string]bool
	patterns []*regexp.Regexp
}

func newRedactingCore(core zapcore.Core, cfg RedactionConfig) (zapcore.Core, error) {
	if !cfg.Enabled {
		return core, nil
	}

	fields := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		fields[strings.ToLower(f)] = true
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	return &redactingCore{Core: core, fields: fields, patterns: patterns}, nil
}

func (c *redactingCore) redact(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = c.redactField(f)
	}
	return out
}

func (c *redactingCore) redactField(f zapcore.Field) zapcore.Field {
	if c.fields[strings.ToLower(f.Key)] {
		if f.Type == zapcore.StringType && strings.HasPrefix(f.String, "[REDACTED") {
			return f
		}
		return zap.String(f.Key, redacted)
	}
	if f.Type == zapcore.StringType {
		for _, re := range c.patterns {
			if re.MatchString(f.String) {
				return zap.String(f.Key, re.ReplaceAllString(f.String, redacted))
			}
		}
	}
	return f
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{
		Core:     c.Core.With(c.redact(fields)),
		fields:   c.fields,
		patterns: c.patterns,
	}
}

func (c *redactingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *redactingCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	for _, re := range c.patterns {
		e.Message = re.ReplaceAllString(e.Message, redacted)
	}
	return c.Core.Write(e, c.redact(fields))
}
