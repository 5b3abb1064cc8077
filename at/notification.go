package at

import "strings"

// NotificationKind classifies an unsolicited line read from the modem.
type NotificationKind int

const (
	// NotifyOther is any line that is neither a call nor an SMS header.
	NotifyOther NotificationKind = iota
	// NotifyCall is a caller ID line (+CLIP).
	NotifyCall
	// NotifySMS is a message header (+CMT). The body follows on the next line.
	NotifySMS
	// NotifyIgnored is a call or SMS line that could not be parsed.
	NotifyIgnored
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyCall:
		return "call"
	case NotifySMS:
		return "sms"
	case NotifyIgnored:
		return "ignored"
	default:
		return "other"
	}
}

// Notification is the parsed form of one unsolicited line.
type Notification struct {
	Kind NotificationKind
	// Number is the caller for NotifyCall and the sender for NotifySMS.
	Number string
	// Line is the trimmed input line.
	Line string
}

// Silent reports whether the line is routine modem chatter that does not
// deserve a log entry: blank lines, RING, final result codes and command
// echoes.
func (n Notification) Silent() bool {
	if n.Kind != NotifyOther {
		return false
	}
	switch {
	case n.Line == "", n.Line == UrcCall:
		return true
	case Classify(n.Line) == TypeFinal:
		return true
	case strings.HasPrefix(n.Line, CmdAt):
		return true
	}
	return false
}

// ParseNotification classifies a line received outside of a command
// transaction.
//
//	+CLIP: "+385911234567",145,"",0,"",0
//	+CMT: "+385911234567","","26/01/01,12:00:00+04"
//
// The number is the first quoted field. Lines carrying one of the markers
// without any quote are reported as NotifyIgnored; ParseNotification never
// fails.
func ParseNotification(line string) Notification {
	line = strings.TrimSpace(line)
	n := Notification{Kind: NotifyOther, Line: line}

	var kind NotificationKind
	switch {
	case strings.HasPrefix(line, UrcCallerID):
		kind = NotifyCall
	case strings.HasPrefix(line, UrcMessage):
		kind = NotifySMS
	default:
		return n
	}

	number, ok := firstQuoted(line)
	if !ok {
		n.Kind = NotifyIgnored
		return n
	}
	n.Kind = kind
	n.Number = number
	return n
}

// firstQuoted returns the text after the first double quote up to the next
// one (or the end of the line when the closing quote is missing).
func firstQuoted(line string) (string, bool) {
	parts := strings.Split(line, `"`)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}
