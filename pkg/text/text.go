/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package text

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	UTF8 = "UTF-8"
	// Auto detects the charset from the head of the input.
	Auto = "auto"

	detectSize = 4096
)

var (
	expectedCharsets = []string{UTF8, "GB-18030"}
	decoderMap       = make(map[string]encoding.Encoding)
)

func init() {
	decoderMap["GB-18030"] = simplifiedchinese.GB18030
	// alias
	decoderMap["GB18030"] = simplifiedchinese.GB18030
	decoderMap["GBK"] = simplifiedchinese.GB18030
	decoderMap["GB2312"] = simplifiedchinese.GB18030
}

// DetectCharset detects charset from bytes
func DetectCharset(bs []byte) string {
	if charsetResults, err := chardet.NewTextDetector().DetectAll(bs); err == nil {
		for _, expected := range expectedCharsets {
			for _, result := range charsetResults {
				if result.Charset == expected {
					return result.Charset
				}
			}
		}
	}

	return UTF8
}

func GetEncoding(charset string) encoding.Encoding {
	return decoderMap[strings.ToUpper(charset)]
}

// NewReader returns a reader producing UTF-8 from r.
// An empty charset means UTF-8. The resolved charset name is returned with the reader;
// for Auto it is Auto, and the detected one is known once the first Read returns.
func NewReader(r io.Reader, charset string) (io.Reader, string, error) {
	switch {
	case charset == "" || strings.EqualFold(charset, UTF8) || strings.EqualFold(charset, "UTF8"):
		return r, UTF8, nil
	case strings.EqualFold(charset, Auto):
		return &AutoReader{br: bufio.NewReaderSize(r, detectSize)}, Auto, nil
	}

	enc := GetEncoding(charset)
	if enc == nil {
		return nil, "", errors.Errorf("unsupported charset %s", charset)
	}
	return transform.NewReader(r, enc.NewDecoder()), strings.ToUpper(charset), nil
}

// AutoReader detects the charset from the bytes of the first read of the underlying
// reader, so a slow stream is never held back waiting for more input.
type AutoReader struct {
	br      *bufio.Reader
	r       io.Reader
	charset string
}

func (a *AutoReader) Read(p []byte) (int, error) {
	if a.r == nil {
		if err := a.detect(); err != nil {
			return 0, err
		}
	}
	return a.r.Read(p)
}

// Charset is the detected charset, empty before the first Read.
func (a *AutoReader) Charset() string {
	return a.charset
}

func (a *AutoReader) detect() error {
	// Peek(1) blocks for one read at most, Buffered is what that read returned
	if _, err := a.br.Peek(1); err != nil {
		if err != io.EOF {
			return errors.Wrap(err, "peek input")
		}
		a.r, a.charset = a.br, UTF8
		return nil
	}
	head, _ := a.br.Peek(a.br.Buffered())
	detected := DetectCharset(head)
	if enc := GetEncoding(detected); enc != nil {
		a.r, a.charset = transform.NewReader(a.br, enc.NewDecoder()), detected
		return nil
	}
	a.r, a.charset = a.br, UTF8
	return nil
}
