package iojson

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader reads a list of T from the file named by its --file flag, or
// from stdin when the flag is unset. The input may be a single JSON array or
// a stream of JSON values, one per line, as written by WriteLines.
type FileReader[T any] struct {
	fileFlagValue string
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to a JSON array or JSON lines file (reads from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// Read reads from the --file path, or from os.Stdin when it is unset.
func (fr *FileReader[T]) Read() ([]T, error) {
	return fr.ReadWith(os.Stdin)
}

// ReadWith reads from the --file path, or from stdin when it is unset. A
// terminal stdin is rejected rather than waited on.
func (fr *FileReader[T]) ReadWith(stdin io.Reader) ([]T, error) {
	if fr.fileFlagValue != "" {
		f, err := os.Open(fr.fileFlagValue)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return Decode[T](f)
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, errors.New("no input provided (stdin is a terminal); use -f flag or pipe JSON input")
	}
	return Decode[T](stdin)
}

// Decode reads either a JSON array of T or a sequence of T values separated
// by whitespace. Empty input decodes to an empty list.
func Decode[T any](r io.Reader) ([]T, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	dec := json.NewDecoder(br)

	if first == '[' {
		var out []T
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("decode JSON array: %w", err)
		}
		if dec.More() {
			return nil, errors.New("decode JSON array: unexpected data after array")
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}

	out := []T{}
	for line := 1; ; line++ {
		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode JSON value %d: %w", line, err)
		}
		out = append(out, v)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
