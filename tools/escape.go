package tools

import (
	"strings"
	"unicode"

	"github.com/stephenmfriend/agent-commander/stream"
)

var argEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`$`, `\$`,
	"`", "\\`",
)

// EscapeArg quotes an argument for a shell command line. Arguments with
// double quotes, whitespace, '$', backticks or backslashes are wrapped in
// double quotes with those characters escaped; others pass through.
func EscapeArg(arg string) string {
	needsQuoting := strings.ContainsAny(arg, "\"$`\\") ||
		strings.IndexFunc(arg, unicode.IsSpace) >= 0
	if !needsQuoting {
		return arg
	}
	return `"` + EscapeForBashC(arg) + `"`
}

// EscapeForBashC makes s safe inside a double-quoted string such as
// bash -c "...".
func EscapeForBashC(s string) string {
	return argEscaper.Replace(s)
}

// EscapeSingleQuotes makes s safe inside a single-quoted shell string.
func EscapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

// commandLine joins an executable and escaped args, trimming the result.
func commandLine(executable string, args []string) string {
	escaped := make([]string, len(args))
	for i, a := range args {
		escaped[i] = EscapeArg(a)
	}
	return strings.TrimSpace(executable + " " + strings.Join(escaped, " "))
}

// pipedCommandLine feeds prompt to the executable on stdin via printf.
func pipedCommandLine(prompt, executable string, args []string) string {
	return strings.TrimSpace("printf '%s' '" + EscapeSingleQuotes(prompt) + "' | " + commandLine(executable, args))
}

// combinePrompt prepends the system prompt for CLIs without a dedicated
// system prompt flag.
func combinePrompt(system, prompt string) string {
	switch {
	case system != "" && prompt != "":
		return system + "\n\n" + prompt
	case system != "":
		return system
	default:
		return prompt
	}
}

func mapModel(models map[string]string, alias string) string {
	if id, ok := models[alias]; ok {
		return id
	}
	return alias
}

// firstString returns the first string value found under any of keys,
// scanning messages in order and keys in order within each message.
func firstString(text string, keys ...string) (string, bool) {
	for _, msg := range stream.ParseAll(text) {
		for _, key := range keys {
			if s, ok := stream.LookupString(msg, key); ok {
				return s, true
			}
		}
	}
	return "", false
}

// addUint adds the integer at path to *dst when present.
func addUint(dst *uint64, msg stream.Message, path ...string) {
	if n, ok := stream.LookupUint(msg, path...); ok {
		*dst += n
	}
}

// detectTypedError reports the first message whose type is one of kinds.
func detectTypedError(text string, kinds ...string) ErrorResult {
	for _, msg := range stream.ParseAll(text) {
		t := stream.Type(msg)
		for _, kind := range kinds {
			if t != kind {
				continue
			}
			message, ok := stream.LookupString(msg, "message")
			if !ok {
				message = "Unknown error"
			}
			return ErrorResult{HasError: true, Type: t, Message: message}
		}
	}
	return ErrorResult{}
}
