package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptSecret asks for the API secret without echo when in is a terminal.
// Otherwise it returns an empty secret and leaves the error to validation.
func promptSecret(in io.Reader, out io.Writer) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", nil
	}

	fmt.Fprint(out, "Your Cloudinary API secret: ")
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read API secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
