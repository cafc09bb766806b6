// Package debug provides category-based debug logging for pinegate.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): controlled via PINEGATE_DEBUG env or config
//   - Levels (HOW MUCH detail): controlled via PINEGATE_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log("search", "request", "url", url)
//	if debug.Enabled("auth") { /* expensive formatting */ }
//
// Categories: auth, store, search, transport, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
//
// Presented tokens and stored hashes are never passed to this package.
package debug

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Known lists the categories the gateway logs under.
var Known = []string{"auth", "store", "search", "transport", "config", "all"}

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At TRACE, upstream search bodies are logged (truncated).
const LevelTrace = slog.LevelDebug - 4

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

func init() {
	// Initialize from environment for immediate availability.
	// Can be re-initialized later via Init() with config values.
	categories = parseCategories(os.Getenv("PINEGATE_DEBUG"))
}

// Init configures the debug system. Called at startup with values
// from config and/or environment. Environment overrides config.
// It returns the requested categories that no component logs under, so a
// misspelled PINEGATE_DEBUG can be reported.
func Init(configCategories string, configLevel string) []string {
	cats := os.Getenv("PINEGATE_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("PINEGATE_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))

	return unknownCategories(categories)
}

func unknownCategories(enabled map[string]bool) []string {
	var unknown []string
	for cat := range enabled {
		known := false
		for _, k := range Known {
			if cat == k {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, cat)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when PINEGATE_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
