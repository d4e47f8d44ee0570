package geonamesdb

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// maxLineSize bounds a single input line. GeoNames alternate name lists can
// run well past bufio's 64 KiB default.
const maxLineSize = 1 << 20

// RecordError reports a failure to parse a specific input line.
type RecordError struct {
	Line int // 1-based line number
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// openSource opens the gazetteer at p. A .zip archive is read through its
// first .txt entry, which is how GeoNames publishes the dumps.
func openSource(p string) (io.ReadCloser, error) {
	if strings.EqualFold(path.Ext(p), ".zip") {
		return openZipEntry(p)
	}
	fi, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return fi, nil
}

// zipEntry closes both the entry and its archive.
type zipEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntry) Close() error {
	err := z.ReadCloser.Close()
	if cerr := z.archive.Close(); err == nil {
		err = cerr
	}
	return err
}

func openZipEntry(p string) (io.ReadCloser, error) {
	rz, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("opening zip file: %w", err)
	}
	for _, f := range rz.File {
		if !strings.EqualFold(path.Ext(f.Name), ".txt") {
			continue
		}
		// Only streamed into memory, never extracted, so entry names are not trusted as paths.
		fi, err := f.Open()
		if err != nil {
			rz.Close()
			return nil, fmt.Errorf("opening %s in zip: %w", f.Name, err)
		}
		return &zipEntry{ReadCloser: fi, archive: rz}, nil
	}
	rz.Close()
	return nil, fmt.Errorf("opening zip file: no .txt entry in %s", p)
}

// scanRecords calls fn for every line of r in order and stops at the first error.
func scanRecords(r io.Reader, fn func(line int, rec Record) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(bufio.ScanLines)

	n := 0
	for scanner.Scan() {
		n++
		rec, err := ParseRecord(scanner.Text())
		if err != nil {
			return &RecordError{Line: n, Err: err}
		}
		if err := fn(n, rec); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input after line %d: %w", n, err)
	}
	return nil
}
