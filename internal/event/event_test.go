package event

import "testing"

func TestProgress_Percent(t *testing.T) {
	tests := []struct {
		name   string
		p      Progress
		want   float64
		wantOK bool
	}{
		{"unknown total", Progress{Downloaded: 10, Total: -1}, 0, false},
		{"zero total", Progress{Downloaded: 0, Total: 0}, 0, false},
		{"half", Progress{Downloaded: 50, Total: 100}, 50, true},
		{"complete", Progress{Downloaded: 100, Total: 100}, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.p.Percent()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Percent() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestKinds(t *testing.T) {
	tests := []struct {
		ev   Event
		want Kind
	}{
		{Log{}, KindLog},
		{Progress{}, KindProgress},
		{Status{}, KindStatus},
		{Crash{}, KindCrash},
	}
	for _, tt := range tests {
		if got := tt.ev.Kind(); got != tt.want {
			t.Errorf("%T.Kind() = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestHandler_NilIsNoop(t *testing.T) {
	var h Handler
	h.Emit(Log{Line: "dropped"})
}

func TestChan_PreservesOrder(t *testing.T) {
	ch := make(chan Event, 3)
	h := Chan(ch)
	for _, line := range []string{"a", "b", "c"} {
		h.Emit(Log{Line: line})
	}
	close(ch)

	var got []string
	for ev := range ch {
		got = append(got, ev.(Log).Line)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("got %v, want [a b c]", got)
	}
}

func TestMulti(t *testing.T) {
	var first, second int
	h := Multi(
		func(Event) { first++ },
		nil,
		func(Event) { second++ },
	)
	h.Emit(Status{Message: "x"})
	h.Emit(Status{Message: "y"})
	if first != 2 || second != 2 {
		t.Errorf("first=%d second=%d, want 2 and 2", first, second)
	}
}
