package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/campusmarket/internal/client/client"
	"github.com/dmitrijs2005/campusmarket/internal/client/services"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Profile(ctx context.Context) error
	Verify(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	Search(ctx context.Context, text string) error
	Category(ctx context.Context, slug string) error
	Condition(ctx context.Context, value string) error
	Price(ctx context.Context, minPrice, maxPrice string) error
	Sort(ctx context.Context, value string) error
	Page(ctx context.Context, value string) error
	Clear(ctx context.Context) error
	ShowResults(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Categories(ctx context.Context) error
	Mine(ctx context.Context) error
	Mark(ctx context.Context, id, status string) error
	Create(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Save(ctx context.Context, id string) error
	Unsave(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) error
	Saved(ctx context.Context) error
	Chat(ctx context.Context, listing string) error
}

const (
	helpAnonymous = "Available commands: search, category, condition, price, sort, page, clear, (r)esults, show, categories, register, login, reset, exit"
	helpSignedIn  = "Available commands: search, category, condition, price, sort, page, clear, (r)esults, show, categories, save, unsave, toggle, saved, mine, mark, create, edit, delete, chat, whoami, profile, verify, logout, exit"
)

// runREPL starts a simple read–eval–print loop for the marketplace CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Commands
//
//	Browsing (always available):
//	  - search [text]             set the text query ("search" alone clears it)
//	  - category <slug|->         filter by category
//	  - condition <new|good|used|->
//	  - price <min|-> <max|->     price range in pounds
//	  - sort <-created_at|created_at|price|-price>
//	  - page <n>
//	  - clear                     drop every filter
//	  - results | r               print the current results
//	  - show <id>                 show one listing
//	  - categories                list categories
//
//	Not logged in:
//	  - register, login, reset
//
//	Logged in:
//	  - save <id>, unsave <id>, toggle <id>, saved
//	  - mine, mark <id> <available|reserved|sold>
//	  - create, edit <id>, delete <id>
//	  - chat [listing id]
//	  - whoami, profile, verify, logout
//
// Handler errors are printed as a single line; errors that were already
// shown as notifications are not repeated.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cm> %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "reset":
			cmdErr = a.ResetPassword(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "profile":
			cmdErr = a.Profile(ctx)

		case "verify":
			cmdErr = a.Verify(ctx)

		case "search":
			cmdErr = a.Search(ctx, strings.Join(args, " "))

		case "category":
			if usage(args, 1, "category <slug|->") {
				cmdErr = a.Category(ctx, args[0])
			}

		case "condition":
			if usage(args, 1, "condition <new|good|used|->") {
				cmdErr = a.Condition(ctx, args[0])
			}

		case "price":
			if usage(args, 2, "price <min|-> <max|->") {
				cmdErr = a.Price(ctx, args[0], args[1])
			}

		case "sort":
			if usage(args, 1, "sort <-created_at|created_at|price|-price>") {
				cmdErr = a.Sort(ctx, args[0])
			}

		case "page":
			if usage(args, 1, "page <n>") {
				cmdErr = a.Page(ctx, args[0])
			}

		case "clear":
			cmdErr = a.Clear(ctx)

		case "r", "results":
			cmdErr = a.ShowResults(ctx)

		case "show":
			if usage(args, 1, "show <id>") {
				cmdErr = a.Show(ctx, args[0])
			}

		case "categories":
			cmdErr = a.Categories(ctx)

		case "mine":
			cmdErr = a.Mine(ctx)

		case "mark":
			if usage(args, 2, "mark <id> <available|reserved|sold>") {
				cmdErr = a.Mark(ctx, args[0], args[1])
			}

		case "create", "sell":
			cmdErr = a.Create(ctx)

		case "edit":
			if usage(args, 1, "edit <id>") {
				cmdErr = a.Edit(ctx, args[0])
			}

		case "delete":
			if usage(args, 1, "delete <id>") {
				cmdErr = a.Delete(ctx, args[0])
			}

		case "save":
			if usage(args, 1, "save <id>") {
				cmdErr = a.Save(ctx, args[0])
			}

		case "unsave":
			if usage(args, 1, "unsave <id>") {
				cmdErr = a.Unsave(ctx, args[0])
			}

		case "toggle":
			if usage(args, 1, "toggle <id>") {
				cmdErr = a.Toggle(ctx, args[0])
			}

		case "saved":
			cmdErr = a.Saved(ctx)

		case "chat":
			listing := ""
			if len(args) > 0 {
				listing = args[0]
			}
			cmdErr = a.Chat(ctx, listing)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if msg := errorMessage(cmdErr); msg != "" {
			printlnFn("Error:", msg)
		}
	}
}

func usage(args []string, n int, text string) bool {
	if len(args) < n {
		printlnFn("Usage:", text)
		return false
	}
	return true
}

// errorMessage turns a handler error into one line for the user. It returns
// "" when there is nothing left to say.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		rep     *reportedError
		expired *client.AuthExpiredError
		timeout *client.TimeoutError
		network *client.NetworkError
	)
	switch {
	case errors.As(err, &rep), errors.As(err, &expired), errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, services.ErrNotAuthenticated):
		return "please log in first"
	case errors.Is(err, services.ErrChatUnavailable):
		return "chat is not available"
	case errors.Is(err, client.ErrStaleCredentials):
		return "you signed in again meanwhile, please retry"
	case errors.As(err, &timeout):
		return "the server took too long to answer"
	case errors.As(err, &network):
		return "cannot reach the server"
	}
	return client.UserMessage(err, err.Error())
}
