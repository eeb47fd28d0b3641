// Package widget is the view model of the graph chat: the transcript and
// its formatter, the zoomable image viewer, the generate/clear state
// machine and the event dispatch table. Front ends drive it and draw from
// its accessors; it never touches a terminal or a network socket itself.
package widget

import (
	"html"
	"strings"

	"github.com/ziadkadry99/flowgraph/internal/chat"
)

// Message is one transcript entry.
type Message struct {
	Role    chat.Role
	Content string
}

// LineKind classifies a formatted line.
type LineKind int

const (
	LinePlain LineKind = iota
	LineBullet
	LineSubBullet
)

// Class returns the CSS class the line renders with.
func (k LineKind) Class() string {
	switch k {
	case LineBullet:
		return "bullet-point"
	case LineSubBullet:
		return "sub-bullet"
	default:
		return "message-line"
	}
}

// Line is one formatted line. Text is the line as written, including any
// indentation and the bullet marker.
type Line struct {
	Kind LineKind
	Text string
}

// Fragment is a formatted message, one Line per input line.
type Fragment []Line

// FormatMessage splits content into lines and classifies each by its first
// non-blank character: "•" starts a bullet, "-" a sub-bullet, anything else
// is plain. Blank lines are kept as empty plain lines.
func FormatMessage(content string) Fragment {
	lines := strings.Split(content, "\n")
	frag := make(Fragment, 0, len(lines))
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		kind := LinePlain
		switch {
		case strings.HasPrefix(trimmed, "•"):
			kind = LineBullet
		case strings.HasPrefix(trimmed, "-"):
			kind = LineSubBullet
		}
		frag = append(frag, Line{Kind: kind, Text: l})
	}
	return frag
}

// HTML renders the fragment as a run of classed divs. Text is inserted
// as is; only assistant content goes through here.
func (f Fragment) HTML() string {
	var b strings.Builder
	for _, l := range f {
		b.WriteString(`<div class="`)
		b.WriteString(l.Kind.Class())
		b.WriteString(`">`)
		b.WriteString(l.Text)
		b.WriteString(`</div>`)
	}
	return b.String()
}

// Fragment returns the formatted lines for display. User messages are a
// single plain line so markers typed by the user carry no meaning.
func (m Message) Fragment() Fragment {
	if m.Role == chat.RoleUser {
		return Fragment{{Kind: LinePlain, Text: m.Content}}
	}
	return FormatMessage(m.Content)
}

// HTML renders the message bubble. User content is escaped; assistant
// content comes from the server and is formatted into bullets.
func (m Message) HTML() string {
	if m.Role == chat.RoleUser {
		return `<div class="message user-message">` + html.EscapeString(m.Content) + `</div>`
	}
	return `<div class="message assistant-message">` + FormatMessage(m.Content).HTML() + `</div>`
}
