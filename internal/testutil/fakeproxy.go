package testutil

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"
)

// FakeProxyEnv selects a fake proxy behaviour. Test binaries that call
// RunFakeProxy from TestMain double as the proxy executable: a supervisor
// launches os.Executable() (or a downloaded copy of it) and the child
// inherits the environment.
const FakeProxyEnv = "LAUNCHER_FAKE_PROXY"

// Fake proxy modes.
const (
	// FakeExit0 prints one line and exits cleanly.
	FakeExit0 = "exit0"
	// FakeExit2 prints "boom" on stderr and exits with code 2.
	FakeExit2 = "exit2"
	// FakeServe prints two suppressed lines, a stderr warning and the ready
	// line, then runs until interrupted.
	FakeServe = "serve"
	// FakeStubborn ignores interrupts and has to be killed.
	FakeStubborn = "stubborn"
	// FakeLongLine prints one line of LongLineSize bytes, a normal line and
	// the ready line, then runs until interrupted.
	FakeLongLine = "longline"
)

// LongLineSize is the length of the oversized line FakeLongLine prints.
const LongLineSize = 2000000

// RunFakeProxy exits the process acting as the proxy when FakeProxyEnv is
// set, and returns otherwise. Call it first thing in TestMain.
func RunFakeProxy() {
	if mode := os.Getenv(FakeProxyEnv); mode != "" {
		os.Exit(fakeProxy(mode, os.Args[1:]))
	}
}

func fakeProxy(mode string, args []string) int {
	port := "?"
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "--port" {
			port = args[i+1]
		}
	}

	switch mode {
	case FakeExit0:
		fmt.Println("nothing to do")
		return 0

	case FakeExit2:
		fmt.Fprintln(os.Stderr, "boom")
		return 2

	case FakeServe:
		interrupted := make(chan os.Signal, 1)
		signal.Notify(interrupted, os.Interrupt)
		fmt.Println("[launcher:ign] internal handshake")
		fmt.Println("[launcher:uuid] 5f2c")
		fmt.Fprintln(os.Stderr, "warning: test mode")
		fmt.Printf("Proxy running on port %s\n", port)
		<-interrupted
		fmt.Println("shutting down")
		return 0

	case FakeLongLine:
		interrupted := make(chan os.Signal, 1)
		signal.Notify(interrupted, os.Interrupt)
		fmt.Println(strings.Repeat("x", LongLineSize))
		fmt.Println("after-long-line")
		fmt.Printf("Proxy running on port %s\n", port)
		<-interrupted
		return 0

	case FakeStubborn:
		signal.Ignore(os.Interrupt)
		fmt.Printf("Proxy running on port %s\n", port)
		time.Sleep(time.Minute)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "unknown fake proxy mode %q\n", mode)
		return 3
	}
}
