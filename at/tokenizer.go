package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is used for tokenizing AT command modem responses. It uses
// the signature of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// It behaves like SplitLines but also recognizes the SMS input prompt
// ("> ") at the start of a token. Use it only on command responses; an
// incoming message body may itself start with "> ".
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if bytes.HasPrefix(data, []byte(Prompt)) {
		return len(Prompt), data[0:len(Prompt)], nil
	}
	return SplitLines(data, atEOF)
}

// SplitLines splits on LF and drops a trailing CR from the token. SIM800
// modems occasionally emit bare LF line endings, so CR alone is never
// treated as a terminator.
func SplitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, bytes.TrimSuffix(data[0:i], []byte("\r")), nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var (
	_ bufio.SplitFunc = Splitter
	_ bufio.SplitFunc = SplitLines
)

// Classify identifies the nature of the modem output
func Classify(line string) ResponseType {
	if line == Prompt {
		return TypePrompt
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, NoCarrier, NoDialtone, Busy, NoAnswer:
		return TypeFinal
	}

	// Prefix matches
	switch {
	case strings.HasPrefix(line, CmeError), strings.HasPrefix(line, CmsError):
		return TypeFinal
	case strings.HasPrefix(line, UrcNewMsg),
		strings.HasPrefix(line, UrcMessage),
		strings.HasPrefix(line, UrcCallerID),
		line == UrcCall:
		return TypeURC
	default:
		return TypeData
	}
}

// Lines splits a raw response into trimmed lines using Splitter, keeping
// empty lines so callers can apply their own filtering.
func Lines(raw string) []string {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Split(Splitter)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	return lines
}

// HasPrompt reports whether a response contains the SMS input prompt.
func HasPrompt(raw string) bool {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Split(Splitter)
	for scanner.Scan() {
		if Classify(scanner.Text()) == TypePrompt {
			return true
		}
	}
	return false
}
