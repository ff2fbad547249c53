package logger

import (
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestIDKey is the context key under which the HTTP layer stores the
// request identifier.
type RequestIDKey struct{}

// New builds the service logger. Production gets JSON with ISO8601
// timestamps for the log pipeline; anything else gets the colored console
// encoder for local runs.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return log.With(zap.String("service", "admin-iam")), nil
}

// MaskEmail hides the local part of an address except its first characters:
// john.doe@example.com becomes joh***@example.com. Short local parts are
// masked entirely.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	local, domain, found := strings.Cut(email, "@")
	if !found {
		return "***"
	}

	keep := 3
	if len(local) <= keep {
		return "***@" + domain
	}
	return local[:keep] + "***@" + domain
}

// MaskIP keeps only the network half of an address: the first two octets of
// an IPv4, the first two groups of an IPv6. Unparseable input masks fully so
// a malformed header can never smuggle a raw address into the logs.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}

	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "***"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.*.*", v4[0], v4[1])
	}

	v6 := parsed.To16()
	return fmt.Sprintf("%x:%x:*:*:*:*:*:*",
		uint16(v6[0])<<8|uint16(v6[1]),
		uint16(v6[2])<<8|uint16(v6[3]),
	)
}

// MaskString keeps the first and last two characters of an opaque secret,
// masking everything else. Values of four characters or fewer are masked
// entirely.
func MaskString(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= 4 {
		return "***"
	}
	return string(runes[:2]) + "***" + string(runes[len(runes)-2:])
}
