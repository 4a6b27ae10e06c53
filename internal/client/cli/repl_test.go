package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/campusmarket/internal/client/client"
	"github.com/dmitrijs2005/campusmarket/internal/client/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	err      error
}

func (f *fakeExec) record(name string, args ...string) error {
	call := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) Register(context.Context) error      { return f.record("register") }
func (f *fakeExec) Login(context.Context) error         { return f.record("login") }
func (f *fakeExec) Logout(context.Context) error        { return f.record("logout") }
func (f *fakeExec) WhoAmI(context.Context) error        { return f.record("whoami") }
func (f *fakeExec) Profile(context.Context) error       { return f.record("profile") }
func (f *fakeExec) Verify(context.Context) error        { return f.record("verify") }
func (f *fakeExec) ResetPassword(context.Context) error { return f.record("reset") }
func (f *fakeExec) Search(_ context.Context, text string) error {
	return f.record("search", text)
}
func (f *fakeExec) Category(_ context.Context, slug string) error {
	return f.record("category", slug)
}
func (f *fakeExec) Condition(_ context.Context, v string) error {
	return f.record("condition", v)
}
func (f *fakeExec) Price(_ context.Context, lo, hi string) error {
	return f.record("price", lo, hi)
}
func (f *fakeExec) Sort(_ context.Context, v string) error { return f.record("sort", v) }
func (f *fakeExec) Page(_ context.Context, v string) error { return f.record("page", v) }
func (f *fakeExec) Clear(context.Context) error            { return f.record("clear") }
func (f *fakeExec) ShowResults(context.Context) error      { return f.record("results") }
func (f *fakeExec) Show(_ context.Context, id string) error {
	return f.record("show", id)
}
func (f *fakeExec) Categories(context.Context) error { return f.record("categories") }
func (f *fakeExec) Mine(context.Context) error       { return f.record("mine") }
func (f *fakeExec) Mark(_ context.Context, id, st string) error {
	return f.record("mark", id, st)
}
func (f *fakeExec) Create(context.Context) error              { return f.record("create") }
func (f *fakeExec) Edit(_ context.Context, id string) error   { return f.record("edit", id) }
func (f *fakeExec) Delete(_ context.Context, id string) error { return f.record("delete", id) }
func (f *fakeExec) Save(_ context.Context, id string) error   { return f.record("save", id) }
func (f *fakeExec) Unsave(_ context.Context, id string) error { return f.record("unsave", id) }
func (f *fakeExec) Toggle(_ context.Context, id string) error { return f.record("toggle", id) }
func (f *fakeExec) Saved(context.Context) error               { return f.record("saved") }
func (f *fakeExec) Chat(_ context.Context, listing string) error {
	return f.record("chat", listing)
}

// capturePrint replaces printlnFn for the duration of the test and returns
// everything printed, one entry per call.
func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func runLines(exec *fakeExec, lines ...string) {
	r := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	runREPL(context.Background(), exec, func() string { return "status" }, r)
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{loggedIn: true}
	runLines(exec,
		"search  blue   desk ",
		"search",
		"category books",
		"condition good",
		"price 5 -",
		"sort price",
		"page 2",
		"clear",
		"r",
		"results",
		"show 7",
		"categories",
		"save 1",
		"unsave 1",
		"toggle 2",
		"saved",
		"mine",
		"mark 3 sold",
		"create",
		"sell",
		"edit 3",
		"delete 3",
		"chat",
		"chat 9",
		"whoami",
		"profile",
		"verify",
		"logout",
		"login",
		"register",
		"reset",
		"exit",
	)

	assert.Equal(t, []string{
		"search blue desk",
		"search",
		"category books",
		"condition good",
		"price 5 -",
		"sort price",
		"page 2",
		"clear",
		"results",
		"results",
		"show 7",
		"categories",
		"save 1",
		"unsave 1",
		"toggle 2",
		"saved",
		"mine",
		"mark 3 sold",
		"create",
		"create",
		"edit 3",
		"delete 3",
		"chat",
		"chat 9",
		"whoami",
		"profile",
		"verify",
		"logout",
		"login",
		"register",
		"reset",
	}, exec.calls)
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	out := capturePrint(t)

	exec := &fakeExec{}
	runLines(exec, "show", "price 1", "mark 2", "delete", "edit", "", "quit", "save 1")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Usage: show <id>")
	assert.Contains(t, *out, "Usage: price <min|-> <max|->")
	assert.Contains(t, *out, "Usage: mark <id> <available|reserved|sold>")
	assert.Contains(t, *out, "Usage: delete <id>")
	assert.Contains(t, *out, "Usage: edit <id>")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	capturePrint(t)

	exec := &fakeExec{}
	r := bufio.NewReader(strings.NewReader("login"))
	runREPL(context.Background(), exec, func() string { return "s" }, r)

	assert.Equal(t, []string{"login"}, exec.calls)
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	out := capturePrint(t)
	runLines(&fakeExec{}, "help", "exit")
	assert.Contains(t, *out, helpAnonymous)

	out = capturePrint(t)
	runLines(&fakeExec{loggedIn: true}, "help", "exit")
	assert.Contains(t, *out, helpSignedIn)
}

func TestRunREPL_UnknownCommandAndPrompt(t *testing.T) {
	out := capturePrint(t)
	runLines(&fakeExec{}, "frobnicate", "exit")

	require.NotEmpty(t, *out)
	assert.Equal(t, "cm> status >", (*out)[0])
	assert.Contains(t, *out, "Unknown command: frobnicate")
}

func TestRunREPL_PrintsHandlerErrors(t *testing.T) {
	out := capturePrint(t)
	runLines(&fakeExec{err: services.ErrNotAuthenticated}, "saved", "exit")
	assert.Contains(t, *out, "Error: please log in first")
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "already reported", err: reported(errors.New("x")), want: ""},
		{name: "expired", err: fmt.Errorf("op: %w", &client.AuthExpiredError{}), want: ""},
		{name: "canceled", err: context.Canceled, want: ""},
		{name: "not logged in", err: services.ErrNotAuthenticated, want: "please log in first"},
		{name: "chat", err: services.ErrChatUnavailable, want: "chat is not available"},
		{name: "stale credentials", err: fmt.Errorf("%w: refresh failed", client.ErrStaleCredentials), want: "you signed in again meanwhile, please retry"},
		{name: "timeout", err: &client.TimeoutError{Op: "GET /x", Err: context.DeadlineExceeded}, want: "the server took too long to answer"},
		{name: "network", err: &client.NetworkError{Op: "GET /x", Err: errors.New("refused")}, want: "cannot reach the server"},
		{
			name: "validation",
			err:  fmt.Errorf("login: %w", client.NewValidationError(400, map[string][]string{"detail": {"Invalid credentials"}})),
			want: "Invalid credentials",
		},
		{name: "plain", err: errors.New("page must be a number"), want: "page must be a number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.err))
		})
	}
}
