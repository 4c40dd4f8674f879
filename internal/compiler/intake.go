package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const fence = "```"

// StripFences removes a markdown code fence wrapped around the text. Only the
// outer boundary is touched: surrounding whitespace, then every backtick at
// either end, then a leading "json" tag line.
func StripFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, fence) {
		return t
	}

	t = strings.Trim(t, "`")
	first, rest, found := strings.Cut(t, "\n")
	if strings.HasPrefix(strings.ToLower(first), "json") {
		if !found {
			return ""
		}
		return rest
	}
	return t
}

// Parse strips fences and decodes exactly one JSON value. Numbers are kept as
// json.Number so integer checks and the typed decode see the literal.
func Parse(text string) (interface{}, error) {
	body := StripFences(text)

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Message: "unexpected end of JSON input", Err: err}
		}
		return nil, &ParseError{Message: err.Error(), Err: err}
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Message: fmt.Sprintf("extra data after JSON value at offset %d", dec.InputOffset())}
	}

	return doc, nil
}
