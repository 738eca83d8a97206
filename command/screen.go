package command

import "strings"

// ScreenSession is one entry of `screen -ls` output.
type ScreenSession struct {
	PID   string
	Name  string
	State string
}

// ParseScreenList extracts sessions from `screen -ls` output.
func ParseScreenList(out string) []ScreenSession {
	var sessions []ScreenSession
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "\t") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		pid, name, ok := strings.Cut(fields[0], ".")
		if !ok {
			continue
		}
		s := ScreenSession{PID: pid, Name: name}
		for _, f := range fields[1:] {
			if strings.HasPrefix(f, "(") && strings.HasSuffix(f, ")") {
				s.State = strings.Trim(f, "()")
			}
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// FindScreenSession returns the session called name, if listed.
func FindScreenSession(out, name string) (ScreenSession, bool) {
	for _, s := range ParseScreenList(out) {
		if s.Name == name {
			return s, true
		}
	}
	return ScreenSession{}, false
}
