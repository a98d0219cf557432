package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ParseStatus tags how a model response was resolved.
type ParseStatus int

const (
	// Unavailable means the call itself failed; there is no text to parse.
	Unavailable ParseStatus = iota
	// Malformed means text came back but no JSON document could be decoded from it.
	Malformed
	Parsed
)

func (s ParseStatus) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Malformed:
		return "malformed"
	default:
		return "unavailable"
	}
}

type ParseResult[T any] struct {
	Status ParseStatus
	Value  T
	Err    error
}

var fencedJSONRegex = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// ParseJSONResponse resolves a chat response into T: the first fenced block
// is tried, then the whole text. callErr short-circuits to Unavailable.
func ParseJSONResponse[T any](resp Response, callErr error) ParseResult[T] {
	var result ParseResult[T]
	if callErr != nil {
		result.Status = Unavailable
		result.Err = callErr
		return result
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		result.Status = Malformed
		result.Err = ErrEmptyResponse
		return result
	}

	if m := fencedJSONRegex.FindStringSubmatch(text); m != nil {
		var v T
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &v); err != nil {
			result.Status = Malformed
			result.Err = fmt.Errorf("parse fenced JSON: %w", err)
			return result
		}
		result.Status = Parsed
		result.Value = v
		return result
	}

	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		result.Status = Malformed
		result.Err = fmt.Errorf("parse JSON: %w", err)
		return result
	}
	result.Status = Parsed
	result.Value = v
	return result
}

// IsUnavailable reports whether err means no provider was configured.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
