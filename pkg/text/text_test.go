/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package text

import (
	"bufio"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func gb18030(t *testing.T, s string) string {
	b, err := simplifiedchinese.GB18030.NewEncoder().String(s)
	require.NoError(t, err)
	return b
}

func TestNewReader_UTF8(t *testing.T) {
	for _, charset := range []string{"", "utf-8", "UTF8"} {
		r, resolved, err := NewReader(strings.NewReader("service started ok\n"), charset)
		require.NoError(t, err)
		assert.Equal(t, UTF8, resolved)
		b, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "service started ok\n", string(b))
	}
}

func TestNewReader_Explicit(t *testing.T) {
	r, resolved, err := NewReader(strings.NewReader(gb18030(t, "服务 启动 成功\n")), "gbk")
	require.NoError(t, err)
	assert.Equal(t, "GBK", resolved)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "服务 启动 成功\n", string(b))
}

func TestNewReader_Unsupported(t *testing.T) {
	_, _, err := NewReader(strings.NewReader(""), "EBCDIC")
	assert.Error(t, err)
}

func TestNewReader_AutoKeepsAllBytes(t *testing.T) {
	content := strings.Repeat("plain ascii line number x\n", 500)
	r, resolved, err := NewReader(strings.NewReader(content), Auto)
	require.NoError(t, err)
	assert.Equal(t, Auto, resolved)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, string(b))
	assert.NotEmpty(t, r.(*AutoReader).Charset())

	r, _, err = NewReader(strings.NewReader(""), Auto)
	require.NoError(t, err)
	b, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, b)
	assert.Equal(t, UTF8, r.(*AutoReader).Charset())
}

func TestNewReader_AutoDoesNotWaitForMoreInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	go pw.Write([]byte("service started ok\n"))

	r, _, err := NewReader(pr, Auto)
	require.NoError(t, err)

	got := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(r).ReadString('\n')
		got <- line
	}()
	select {
	case line := <-got:
		assert.Equal(t, "service started ok\n", line)
	case <-time.After(5 * time.Second):
		t.Fatal("first line not delivered while the input stays open")
	}
}

func TestGetEncoding(t *testing.T) {
	assert.NotNil(t, GetEncoding("GB18030"))
	assert.NotNil(t, GetEncoding("gb2312"))
	assert.Nil(t, GetEncoding(UTF8))
}
