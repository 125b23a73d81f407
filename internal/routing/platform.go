package routing

import (
	"fmt"
	"strings"
)

// Platform is an outbound messaging app.
type Platform int

const (
	WhatsApp Platform = iota
	Telegram
	Zalo
	Line
)

var platformNames = [...]string{
	WhatsApp: "WhatsApp",
	Telegram: "Telegram",
	Zalo:     "Zalo",
	Line:     "Line",
}

func (p Platform) String() string {
	if p < 0 || int(p) >= len(platformNames) {
		return fmt.Sprintf("Platform(%d)", int(p))
	}
	return platformNames[p]
}

// MarshalText encodes the platform by name.
func (p Platform) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts a platform name in any case.
func (p *Platform) UnmarshalText(text []byte) error {
	parsed, err := ParsePlatform(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePlatform maps a case-insensitive name to a Platform.
func ParsePlatform(name string) (Platform, error) {
	for i, n := range platformNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Platform(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
}

// DeepLink builds the chat URL for number on platform.
func DeepLink(p Platform, number string) string {
	switch p {
	case Zalo:
		return "https://zalo.me/" + number
	case Line:
		return "https://line.me/R/ti/p/~+" + number
	case Telegram:
		return "https://t.me/+" + number
	default:
		return "https://wa.me/" + number
	}
}
