package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
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
	Apps(ctx context.Context) error
	Stage(ctx context.Context, args []string) error
	Files(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	Pause(ctx context.Context, args []string) error
	Resume(ctx context.Context, args []string) error
	URL(ctx context.Context, args []string) error
	Watch(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Usage(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the BoardPack desk CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                    — show available commands
//	  - register                — create an applicant or broker account
//	  - login                   — authenticate
//	  - exit | quit             — leave the program
//
//	Logged in:
//	  - help                    — show available commands
//	  - apps                    — list visible applications
//	  - stage <path> <app> <category> — save a file into the local store
//	  - files                   — list staged files
//	  - upload <app>            — push pending files through presigned URLs
//	  - pause <file-id>         — pause an in-flight upload
//	  - resume <file-id>        — resume a paused upload
//	  - url <document-id>       — presigned download link (cached)
//	  - watch <app>             — tail the application's event stream
//	  - remove <file-id>        — delete a staged file
//	  - usage                   — local store occupancy
//	  - logout                  — log out
//	  - exit | quit             — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("desk> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: apps, stage, files, upload, pause, resume, url, watch, remove, usage, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "apps":
			_ = a.Apps(ctx)

		case "stage":
			_ = a.Stage(ctx, args)

		case "files":
			_ = a.Files(ctx)

		case "upload":
			_ = a.Upload(ctx, args)

		case "pause":
			_ = a.Pause(ctx, args)

		case "resume":
			_ = a.Resume(ctx, args)

		case "url":
			_ = a.URL(ctx, args)

		case "watch":
			_ = a.Watch(ctx, args)

		case "remove":
			_ = a.Remove(ctx, args)

		case "usage":
			_ = a.Usage(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
