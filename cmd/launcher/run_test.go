package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duelsplus/launcher/internal/auth"
	"github.com/duelsplus/launcher/internal/event"
	"github.com/duelsplus/launcher/internal/proxy"
)

type fakeVerifier struct {
	verdicts map[string]auth.Result
	err      error
	seen     []string
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (auth.Result, error) {
	f.seen = append(f.seen, token)
	if f.err != nil {
		return auth.Result{}, f.err
	}
	return f.verdicts[token], nil
}

// scriptedPrompt returns answers in order and fails once they run out.
func scriptedPrompt(answers ...string) (func() (string, error), *int) {
	calls := 0
	return func() (string, error) {
		if calls >= len(answers) {
			return "", errors.New("prompt cancelled")
		}
		answer := answers[calls]
		calls++
		return answer, nil
	}, &calls
}

func TestEnsureToken(t *testing.T) {
	ctx := context.Background()

	t.Run("stored token accepted", func(t *testing.T) {
		store := auth.NewFileStore(filepath.Join(t.TempDir(), "token"))
		if err := store.Save(ctx, "good"); err != nil {
			t.Fatal(err)
		}
		v := &fakeVerifier{verdicts: map[string]auth.Result{"good": {Success: true}}}
		prompt, calls := scriptedPrompt()

		if err := ensureToken(ctx, store, v, &bytes.Buffer{}, prompt); err != nil {
			t.Fatalf("ensureToken() error = %v", err)
		}
		if *calls != 0 {
			t.Errorf("prompted %d times, want 0", *calls)
		}
	})

	t.Run("prompts until valid and saves", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		store := auth.NewFileStore(path)
		v := &fakeVerifier{verdicts: map[string]auth.Result{"good": {Success: true}}}
		prompt, calls := scriptedPrompt("bad", "good")
		var out bytes.Buffer

		if err := ensureToken(ctx, store, v, &out, prompt); err != nil {
			t.Fatalf("ensureToken() error = %v", err)
		}
		if *calls != 2 {
			t.Errorf("prompted %d times, want 2", *calls)
		}
		if !strings.Contains(out.String(), "Invalid token.") {
			t.Errorf("missing invalid notice: %q", out.String())
		}
		got, err := store.Get(ctx)
		if err != nil || got != "good" {
			t.Errorf("stored token = %q, %v; want good", got, err)
		}
	})

	t.Run("stale stored token is replaced", func(t *testing.T) {
		store := auth.NewFileStore(filepath.Join(t.TempDir(), "token"))
		if err := store.Save(ctx, "expired"); err != nil {
			t.Fatal(err)
		}
		v := &fakeVerifier{verdicts: map[string]auth.Result{"fresh": {Success: true}}}
		prompt, _ := scriptedPrompt("fresh")

		if err := ensureToken(ctx, store, v, &bytes.Buffer{}, prompt); err != nil {
			t.Fatalf("ensureToken() error = %v", err)
		}
		if got, _ := store.Get(ctx); got != "fresh" {
			t.Errorf("stored token = %q, want fresh", got)
		}
		if len(v.seen) != 2 || v.seen[0] != "expired" {
			t.Errorf("verified %v, want [expired fresh]", v.seen)
		}
	})

	t.Run("banned token is saved and reported", func(t *testing.T) {
		store := auth.NewFileStore(filepath.Join(t.TempDir(), "token"))
		v := &fakeVerifier{verdicts: map[string]auth.Result{"evil": {Code: auth.CodeBanned}}}
		prompt, _ := scriptedPrompt("evil")
		var out bytes.Buffer

		err := ensureToken(ctx, store, v, &out, prompt)
		if !errors.Is(err, errBanned) {
			t.Fatalf("ensureToken() error = %v, want errBanned", err)
		}
		if !strings.Contains(out.String(), appealURL) {
			t.Errorf("missing appeal link: %q", out.String())
		}
		if got, _ := store.Get(ctx); got != "evil" {
			t.Errorf("stored token = %q, want evil", got)
		}
	})

	t.Run("prompt cancel aborts", func(t *testing.T) {
		store := auth.NewFileStore(filepath.Join(t.TempDir(), "token"))
		v := &fakeVerifier{}
		prompt, _ := scriptedPrompt()

		if err := ensureToken(ctx, store, v, &bytes.Buffer{}, prompt); err == nil {
			t.Fatal("expected error when prompt is cancelled")
		}
		if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
			t.Errorf("token file should not exist, stat err = %v", err)
		}
	})

	t.Run("verifier failure", func(t *testing.T) {
		store := auth.NewFileStore(filepath.Join(t.TempDir(), "token"))
		v := &fakeVerifier{err: errors.New("connection refused")}
		prompt, _ := scriptedPrompt("tok")

		err := ensureToken(ctx, store, v, &bytes.Buffer{}, prompt)
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Fatalf("ensureToken() error = %v, want verifier failure", err)
		}
	})
}

func TestWaitReady(t *testing.T) {
	running := func() proxy.State { return proxy.StateRunning }

	t.Run("ready marker", func(t *testing.T) {
		ready := proxy.NewReadySignal("Proxy running on")
		ready.Observe(event.Log{Stream: event.Stdout, Line: "Proxy running on 25565"})
		if err := waitReady(context.Background(), ready, make(chan struct{}), running); err != nil {
			t.Fatalf("waitReady() error = %v", err)
		}
	})

	t.Run("crash first", func(t *testing.T) {
		crashed := make(chan struct{})
		close(crashed)
		err := waitReady(context.Background(), proxy.NewReadySignal("x"), crashed, running)
		if !errors.Is(err, errExitedEarly) {
			t.Fatalf("waitReady() error = %v, want errExitedEarly", err)
		}
	})

	t.Run("clean exit first", func(t *testing.T) {
		idle := func() proxy.State { return proxy.StateIdle }
		err := waitReady(context.Background(), proxy.NewReadySignal("x"), make(chan struct{}), idle)
		if !errors.Is(err, errExitedEarly) {
			t.Fatalf("waitReady() error = %v, want errExitedEarly", err)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := waitReady(ctx, proxy.NewReadySignal("x"), make(chan struct{}), running)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("waitReady() error = %v, want context.Canceled", err)
		}
	})
}
