/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package runner

import (
	"github.com/pkg/errors"
	"github.com/vjeantet/grok"
)

type (
	// grokExtractor picks one named capture of a grok expression as the analysed text.
	grokExtractor struct {
		g          *grok.Grok
		expression string
		field      string
	}
)

func newGrokExtractor(expression, field string) (*grokExtractor, error) {
	g, err := grok.NewWithConfig(&grok.Config{NamedCapturesOnly: true})
	if err != nil {
		return nil, err
	}
	// compile once so a bad expression fails before any input is read
	if _, err := g.Parse(expression, ""); err != nil {
		return nil, errors.Wrapf(err, "invalid grok expression %q", expression)
	}
	return &grokExtractor{
		g:          g,
		expression: expression,
		field:      field,
	}, nil
}

// Extract returns the captured field, or false when the line does not match.
func (e *grokExtractor) Extract(line string) (string, bool) {
	m, err := e.g.Parse(e.expression, line)
	if err != nil || len(m) == 0 {
		return "", false
	}
	v, ok := m[e.field]
	return v, ok
}
