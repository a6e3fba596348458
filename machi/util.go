package machi

import "time"

// addLog puts a new entry at the front and drops anything past MaxLogSize.
func addLog(at time.Time, message string, log []LogEntry) []LogEntry {
	n := len(log) + 1
	if n > MaxLogSize {
		n = MaxLogSize
	}
	out := make([]LogEntry, 0, n)
	out = append(out, LogEntry{At: at.UnixMilli(), Message: message})
	for _, e := range log {
		if len(out) == n {
			break
		}
		out = append(out, e)
	}
	return out
}

func usersWithout(l []User, id string) []User {
	out := make([]User, 0, len(l))
	for _, u := range l {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

func intListContains(l []int, n int) bool {
	for _, x := range l {
		if x == n {
			return true
		}
	}
	return false
}
