package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	args     map[string][]string
}

func newFakeExec() *fakeExec {
	return &fakeExec{args: make(map[string][]string)}
}

func (f *fakeExec) record(name string, args []string) {
	f.calls = append(f.calls, name)
	f.args[name] = args
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.record("register", nil)
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.record("login", nil)
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.record("logout", nil)
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Apps(ctx context.Context) error { f.record("apps", nil); return nil }
func (f *fakeExec) Stage(ctx context.Context, args []string) error {
	f.record("stage", args)
	return nil
}
func (f *fakeExec) Files(ctx context.Context) error { f.record("files", nil); return nil }
func (f *fakeExec) Upload(ctx context.Context, args []string) error {
	f.record("upload", args)
	return nil
}
func (f *fakeExec) Pause(ctx context.Context, args []string) error {
	f.record("pause", args)
	return nil
}
func (f *fakeExec) Resume(ctx context.Context, args []string) error {
	f.record("resume", args)
	return nil
}
func (f *fakeExec) URL(ctx context.Context, args []string) error {
	f.record("url", args)
	return nil
}
func (f *fakeExec) Watch(ctx context.Context, args []string) error {
	f.record("watch", args)
	return nil
}
func (f *fakeExec) Remove(ctx context.Context, args []string) error {
	f.record("remove", args)
	return nil
}
func (f *fakeExec) Usage(ctx context.Context) error { f.record("usage", nil); return nil }

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		for _, v := range a {
			if s, ok := v.(string); ok {
				lines = append(lines, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func runScript(t *testing.T, f *fakeExec, script ...string) {
	t.Helper()
	scanner := bufio.NewScanner(strings.NewReader(strings.Join(script, "\n") + "\n"))
	runREPL(context.Background(), f, func() string { return "" }, scanner)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silencePrintln(t)
	f := newFakeExec()

	runScript(t, f,
		"login",
		"apps",
		"stage /tmp/x.pdf app-1 financials",
		"files",
		"upload app-1",
		"pause file-1",
		"resume file-1",
		"url doc-1",
		"remove file-1",
		"usage",
		"logout",
		"exit",
	)

	assert.Equal(t, []string{"login", "apps", "stage", "files", "upload", "pause", "resume", "url", "remove", "usage", "logout"}, f.calls)
	assert.Equal(t, []string{"/tmp/x.pdf", "app-1", "financials"}, f.args["stage"])
	assert.Equal(t, []string{"app-1"}, f.args["upload"])
	assert.Equal(t, []string{"doc-1"}, f.args["url"])
}

func TestRunREPL_UnknownAndEmptyLines(t *testing.T) {
	lines := silencePrintln(t)
	f := newFakeExec()

	runScript(t, f, "", "   ", "frobnicate", "exit")

	assert.Empty(t, f.calls)
	assert.Contains(t, *lines, "Unknown command:")
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	lines := silencePrintln(t)
	f := newFakeExec()

	runScript(t, f, "help", "login", "help", "exit")

	var loggedOut, loggedIn bool
	for _, l := range *lines {
		if strings.Contains(l, "register, login") {
			loggedOut = true
		}
		if strings.Contains(l, "stage") {
			loggedIn = true
		}
	}
	assert.True(t, loggedOut, "logged-out help shown")
	assert.True(t, loggedIn, "logged-in help shown")
}

func TestRunREPL_ExitStopsLoop(t *testing.T) {
	silencePrintln(t)
	f := newFakeExec()

	runScript(t, f, "exit", "apps")

	assert.Empty(t, f.calls, "commands after exit are not executed")
}
