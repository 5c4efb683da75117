// Package device turns a User-Agent into the short summary stored on leads.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// Unknown is stored when the User-Agent is missing.
const Unknown = "Unknown Device"

// Summary returns "Browser on OS" (e.g. "Chrome on Intel Mac OS X",
// "Safari on iPhone"). Crawlers are reported as "Bot (name)".
func Summary(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return Unknown
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()

	if ua.Bot() {
		if browser == "" {
			return "Bot"
		}
		return "Bot (" + browser + ")"
	}

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" && browser != "" {
			return browser + " on " + platform
		}
	}

	os := ua.OS()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}
