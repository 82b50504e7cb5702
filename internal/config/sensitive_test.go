package config

import "testing"

func TestDetectSensitiveData(t *testing.T) {
	content := `launcher = {
	auth = { verify_url = "https://example.com/verify" },
	token = "abcdefghijklmnopqrstuvwxyz012345",
}`

	findings := DetectSensitiveData(content)
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1: %+v", len(findings), findings)
	}
	f := findings[0]
	if f.PatternName != "token" || f.Line != 3 {
		t.Errorf("finding = %+v, want token on line 3", f)
	}
	if f.Preview != "token = [REDACTED]" {
		t.Errorf("Preview = %q", f.Preview)
	}
}

func TestDetectSensitiveData_Clean(t *testing.T) {
	if findings := DetectSensitiveData(`launcher = { proxy = { port = 25565 } }`); len(findings) != 0 {
		t.Errorf("unexpected findings: %+v", findings)
	}
}

func TestRedactSensitiveValue(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`  password = "hunter2"`, "password = [REDACTED]"},
		{"short", "short [REDACTED]"},
		{"a line without any assignment at all", "a line without any assignment ... [REDACTED]"},
	}
	for _, tt := range tests {
		if got := redactSensitiveValue(tt.line); got != tt.want {
			t.Errorf("redactSensitiveValue(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
