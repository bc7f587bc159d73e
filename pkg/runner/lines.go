/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package runner

import (
	"bufio"
	"io"
)

type (
	inputLine struct {
		text string
		// tooLong lines are counted and skipped, text is empty
		tooLong bool
	}

	// lineReader reads lines of any length but keeps at most max bytes of one line in memory.
	lineReader struct {
		br  *bufio.Reader
		max int
		buf []byte
	}
)

func newLineReader(in io.Reader, max int) *lineReader {
	size := initialBufferSize
	if size > max {
		size = max
	}
	return &lineReader{
		br:  bufio.NewReaderSize(in, size),
		max: max,
	}
}

// next returns the next line without its line ending, or io.EOF after the last one.
func (lr *lineReader) next() (inputLine, error) {
	lr.buf = lr.buf[:0]
	tooLong := false
	read := 0
	for {
		chunk, err := lr.br.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			lr.buf = append(lr.buf, chunk...)
			// room for "\r\n"
			if len(lr.buf) > lr.max+2 {
				tooLong = true
				lr.buf = lr.buf[:0]
			}
		}
		switch err {
		case nil:
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if read == 0 {
				return inputLine{}, io.EOF
			}
		default:
			return inputLine{}, err
		}
		break
	}

	if tooLong {
		return inputLine{tooLong: true}, nil
	}
	line := lr.buf
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	if len(line) > lr.max {
		return inputLine{tooLong: true}, nil
	}
	return inputLine{text: string(line)}, nil
}
