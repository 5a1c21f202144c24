package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNotInteractive = errors.New("stdin is not a terminal")

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question on the terminal. Without a terminal it
// refuses rather than guessing.
func confirm(question string) (bool, error) {
	if !stdinIsTerminal() {
		return false, fmt.Errorf("%w: pass --yes to confirm", errNotInteractive)
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	response, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// readPassphrase returns NOTES_PASSPHRASE when set and otherwise prompts
// without echo.
func readPassphrase() (string, error) {
	if p := os.Getenv("NOTES_PASSPHRASE"); p != "" {
		return p, nil
	}
	return promptPassword("Passphrase: ")
}

func promptPassword(label string) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf("%w: set NOTES_PASSPHRASE", errNotInteractive)
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// readNewPassphrase asks twice and requires both answers to match.
func readNewPassphrase() (string, error) {
	if p := os.Getenv("NOTES_PASSPHRASE"); p != "" {
		return p, nil
	}
	first, err := promptPassword("New passphrase: ")
	if err != nil {
		return "", err
	}
	second, err := promptPassword("Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

// readContent returns the --content flag, or all of stdin when --stdin is set.
func readContent(content string, fromStdin bool) (string, error) {
	if !fromStdin {
		return content, nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading content from stdin: %w", err)
	}
	return string(b), nil
}
