package services

import (
	"strings"

	"github.com/mssola/user_agent"
)

// BotDetector decides whether a user agent belongs to an automated client.
// It is injected into the activity service so the signature list can change
// without touching the recording call sites.
type BotDetector interface {
	IsBot(userAgent string) bool
}

// Known crawler signatures, matched case-insensitively as substrings.
var defaultBotPatterns = []string{
	"bot", "crawler", "spider", "scraper", "curl", "wget",
	"googlebot", "bingbot", "slurp", "duckduckbot", "baiduspider",
	"yandexbot", "facebookexternalhit", "twitterbot", "linkedinbot",
}

type SignatureBotDetector struct {
	patterns []string
}

// NewSignatureBotDetector builds the default detector, optionally extended
// with extra signatures from config.
func NewSignatureBotDetector(extra ...string) *SignatureBotDetector {
	patterns := make([]string, 0, len(defaultBotPatterns)+len(extra))
	patterns = append(patterns, defaultBotPatterns...)
	for _, p := range extra {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			patterns = append(patterns, p)
		}
	}
	return &SignatureBotDetector{patterns: patterns}
}

func (d *SignatureBotDetector) IsBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, pattern := range d.patterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	// Parser fallback catches crawlers the static list misses.
	return user_agent.New(userAgent).Bot()
}
