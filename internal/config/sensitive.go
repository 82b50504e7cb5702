package config

import (
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern that might indicate sensitive data
type SensitivePattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// The verification token belongs in the token file, never in launcher.lua,
// which users tend to share when asking for help.
var sensitivePatterns = []SensitivePattern{
	{
		Name:    "token",
		Pattern: regexp.MustCompile(`(?i)(token|auth[_-]?token|access[_-]?token|bearer)\s*=\s*['"][a-zA-Z0-9._-]{15,}['"]`),
	},
	{
		Name:    "password",
		Pattern: regexp.MustCompile(`(?i)(password|passwd|pwd)\s*=\s*['"].+['"]`),
	},
	{
		Name:    "secret",
		Pattern: regexp.MustCompile(`(?i)(secret|secret[_-]?key|private[_-]?key)\s*=\s*['"][a-zA-Z0-9_-]{15,}['"]`),
	},
}

// SensitiveDataFinding is one suspicious line.
type SensitiveDataFinding struct {
	PatternName string
	Line        int
	Preview     string // Redacted preview of the match
}

// DetectSensitiveData scans configuration content for hardcoded secrets.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding

	for lineNum, line := range strings.Split(content, "\n") {
		for _, pattern := range sensitivePatterns {
			if pattern.Pattern.MatchString(line) {
				findings = append(findings, SensitiveDataFinding{
					PatternName: pattern.Name,
					Line:        lineNum + 1, // 1-based line numbers
					Preview:     redactSensitiveValue(line),
				})
			}
		}
	}

	return findings
}

// redactSensitiveValue keeps the key and hides the value.
func redactSensitiveValue(line string) string {
	eqIdx := strings.Index(line, "=")
	if eqIdx == -1 {
		if len(line) > 30 {
			return line[:30] + "... [REDACTED]"
		}
		return line + " [REDACTED]"
	}

	return strings.TrimSpace(line[:eqIdx]) + " = [REDACTED]"
}
