package proxy

import (
	"testing"

	"github.com/duelsplus/launcher/internal/event"
)

func TestReadySignal(t *testing.T) {
	tests := []struct {
		name    string
		markers []string
		events  []event.Event
		want    bool
		line    string
	}{
		{
			name:   "default_marker",
			events: []event.Event{event.Log{Stream: event.Stdout, Line: "Proxy running on 127.0.0.1:25565"}},
			want:   true,
			line:   "Proxy running on 127.0.0.1:25565",
		},
		{
			name:   "check_mark",
			events: []event.Event{event.Log{Stream: event.Stderr, Line: "[✓] listening"}},
			want:   true,
			line:   "[✓] listening",
		},
		{
			name:   "unrelated_lines",
			events: []event.Event{event.Log{Stream: event.Stdout, Line: "loading"}, event.Status{Message: "Proxy running on"}},
			want:   false,
		},
		{
			name:   "launcher_notice_ignored",
			events: []event.Event{event.Log{Stream: event.Launcher, Line: "Proxy running on"}},
			want:   false,
		},
		{
			name:    "custom_markers",
			markers: []string{"READY"},
			events: []event.Event{
				event.Log{Stream: event.Stdout, Line: "Proxy running on 1"},
				event.Log{Stream: event.Stdout, Line: "READY"},
			},
			want: true,
			line: "READY",
		},
		{
			name: "first_match_kept",
			events: []event.Event{
				event.Log{Stream: event.Stdout, Line: "Proxy running on a"},
				event.Log{Stream: event.Stdout, Line: "Proxy running on b"},
			},
			want: true,
			line: "Proxy running on a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := NewReadySignal(tt.markers...)
			for _, ev := range tt.events {
				sig.Observe(ev)
			}
			if sig.Ready() != tt.want {
				t.Errorf("Ready() = %v, want %v", sig.Ready(), tt.want)
			}
			if sig.Line() != tt.line {
				t.Errorf("Line() = %q, want %q", sig.Line(), tt.line)
			}
			select {
			case <-sig.Done():
				if !tt.want {
					t.Error("Done() closed without a marker")
				}
			default:
				if tt.want {
					t.Error("Done() not closed")
				}
			}
		})
	}
}

func TestReadySignal_AsHandler(t *testing.T) {
	sig := NewReadySignal()
	var seen int
	h := event.Multi(func(event.Event) { seen++ }, sig.Observe)

	h.Emit(event.Log{Stream: event.Stdout, Line: "Proxy running on 25565"})

	if !sig.Ready() || seen != 1 {
		t.Errorf("Ready() = %v, seen = %d", sig.Ready(), seen)
	}
}
