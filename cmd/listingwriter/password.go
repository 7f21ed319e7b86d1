package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/a-h/listingwriter/client"
	"golang.org/x/term"
)

// login uses the given password, or asks for one on stderr.
func login(ctx context.Context, c *client.Client, password string) error {
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		password = readPassword(os.Stdin)
		fmt.Fprintln(os.Stderr)
	}
	return c.LoginPost(ctx, password)
}

// readPassword reads without echo from a terminal, otherwise reads a line.
func readPassword(f *os.File) string {
	if term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(f)
}

func readLine(r io.Reader) string {
	input, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimSpace(input)
}

// readText returns text, or stdin when text is empty and stdin isn't a terminal.
func readText(text string, stdin *os.File) (string, error) {
	if text != "" || term.IsTerminal(int(stdin.Fd())) {
		return text, nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(b), nil
}
