// chat-client is a line-oriented terminal client: it connects to the chat
// server, negotiates a nickname, then turns every stdin line into a chat
// message and renders incoming entries to stdout.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/TorellinX/SEP-Chat/internal/chatclient"
)

func main() {
	fs := flag.NewFlagSet("chat-client", flag.ExitOnError)
	addr := fs.StringP("addr", "a", "localhost:8080", "chat server address")
	nick := fs.StringP("nick", "n", "", "nickname (prompted for when empty)")
	debug := fs.BoolP("debug", "d", false, "enable debug logging")
	_ = fs.Parse(os.Args[1:])

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if err := run(*addr, *nick, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(addr, nick string, logger *slog.Logger) error {
	model := chatclient.NewModel(logger)
	printer := newConsolePrinter(os.Stdout)
	model.Subscribe(printer)

	conn, err := chatclient.Dial(addr, model, logger)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()
	model.SetConnection(conn)

	stdin := bufio.NewScanner(os.Stdin)

	for {
		nick = strings.TrimSpace(nick)
		for nick == "" {
			fmt.Print("nickname: ")
			if !stdin.Scan() {
				return stdin.Err()
			}
			nick = strings.TrimSpace(stdin.Text())
		}
		if err := model.LogInWithName(nick); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		ok, err := printer.awaitLogin(conn.Done())
		if err != nil {
			return err
		}
		if ok {
			break
		}
		fmt.Println("nickname already in use, pick another one")
		nick = ""
	}

	// Input loop; the printer renders inbound entries concurrently.
	go func() {
		for stdin.Scan() {
			text := strings.TrimSpace(stdin.Text())
			if text == "" {
				continue
			}
			if err := model.PostMessage(text); err != nil {
				logger.Error("post message failed", "error", err)
				return
			}
		}
		_ = conn.Close()
	}()

	<-conn.Done()
	fmt.Println("disconnected")
	return nil
}

// consolePrinter renders model entries as chat lines and relays login
// results to the main goroutine.
type consolePrinter struct {
	out         *os.File
	loginResult chan bool
}

func newConsolePrinter(out *os.File) *consolePrinter {
	return &consolePrinter{out: out, loginResult: make(chan bool, 1)}
}

func (p *consolePrinter) LoggedIn() {
	p.loginResult <- true
}

func (p *consolePrinter) LoginFailed() {
	p.loginResult <- false
}

func (p *consolePrinter) EntryAdded(e chatclient.Entry) {
	switch e.Kind {
	case chatclient.EntryLoggedIn:
		fmt.Fprintf(p.out, "*** logged in as %s\n", e.Nick)
	case chatclient.EntryUserJoined:
		fmt.Fprintf(p.out, "*** %s joined the chat\n", e.Nick)
	case chatclient.EntryUserLeft:
		fmt.Fprintf(p.out, "*** %s left the chat\n", e.Nick)
	case chatclient.EntryTextMessage:
		fmt.Fprintf(p.out, "[%s] %s: %s\n", e.Time, e.Nick, e.Content)
	}
}

func (p *consolePrinter) awaitLogin(done <-chan struct{}) (bool, error) {
	select {
	case ok := <-p.loginResult:
		return ok, nil
	case <-done:
		return false, fmt.Errorf("server closed the connection during login")
	case <-time.After(10 * time.Second):
		return false, fmt.Errorf("timed out waiting for login reply")
	}
}
