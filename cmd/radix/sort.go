package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/radix/internal/radix"
	"github.com/san-kum/radix/internal/verify"
)

func sortKeys(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	keys, err := readKeys(in)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	s, err := openSorter(cfg)
	if err != nil {
		return err
	}
	defer s.Backend().Cleanup()

	padded := padKeys(keys, s.Params())
	slog.Debug("input padded", "keys", len(keys), "n", len(padded))

	out, err := s.Sort(padded)
	if err != nil {
		return err
	}
	out = out[:len(keys)]

	if check {
		if err := verify.Compare(out, verify.Reference(keys)); err != nil {
			return err
		}
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	return writeKeys(w, out)
}

// readKeys parses whitespace separated decimal uint32 values.
func readKeys(r io.Reader) ([]uint32, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	keys := make([]uint32, 0, 1024)
	for sc.Scan() {
		v, err := strconv.ParseUint(sc.Text(), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", len(keys), err)
		}
		keys = append(keys, uint32(v))
	}
	return keys, sc.Err()
}

func writeKeys(w io.Writer, keys []uint32) error {
	buf := make([]byte, 0, 16)
	for _, k := range keys {
		buf = strconv.AppendUint(buf[:0], uint64(k), 10)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// padKeys extends keys to a length the sorter accepts, using the largest
// allowed key so the padding sorts to the tail.
func padKeys(keys []uint32, p radix.Params) []uint32 {
	n := max(len(keys), p.WorkGroupSize)
	size := 1
	for size < n {
		size <<= 1
	}

	fill := p.MaxKey()
	out := make([]uint32, size)
	copy(out, keys)
	for i := len(keys); i < size; i++ {
		out[i] = fill
	}
	return out
}
