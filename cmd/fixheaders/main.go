package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// main repairs raw transfer exports whose header names both account columns
// plainly "Account". Only the first line changes: the first occurrence
// becomes "FromAccount" and the second "ToAccount", which is what the
// transactions pipeline validates against.
func main() {
	dir := flag.String("dir", ".", "directory to scan for *_Trans.csv files")
	flag.Parse()

	paths, err := filepath.Glob(filepath.Join(*dir, "*_Trans.csv"))
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(paths) == 0 {
		log.Printf("no *_Trans.csv files in %s", *dir)
		return
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(updateLine(filepath.Base(path), info.Size()))
		if err := rewriteHeader(path); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
	}
}

// updateLine formats the per-file progress line with a base-1024 size,
// matching what ls -lh reports for the same file.
func updateLine(name string, size int64) string {
	return fmt.Sprintf("Updating %s   [size: %s]", name, humanize.IBytes(uint64(size)))
}

// fixHeader renames the duplicate account columns in a raw header line.
// Lines without two ",Account," cells come back unchanged, so running the
// tool twice is harmless.
func fixHeader(line string) string {
	line = strings.Replace(line, ",Account,", ",FromAccount,", 1)
	return strings.Replace(line, ",Account,", ",ToAccount,", 1)
}

// rewriteHeader streams path into a sibling temp file with its first line
// fixed, then renames it into place so a crash never leaves a half-written
// file behind.
func rewriteHeader(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	r := bufio.NewReader(in)
	w := bufio.NewWriter(tmp)

	header, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		tmp.Close()
		return err
	}
	if _, err := w.WriteString(fixHeader(header)); err != nil {
		tmp.Close()
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
