package domain

// MarkupKind tells the transport which keyboard to attach to a reply.
// The state machine never touches telebot types directly.
type MarkupKind int

const (
	MarkupNone MarkupKind = iota
	MarkupMenu
	MarkupSubscribe
	MarkupProfile
)

// Reply is one outbound message produced by the state machine
type Reply struct {
	Text    string
	Markup  MarkupKind
	AsVoice bool
}

// TextReply is a shorthand for a plain text reply without a keyboard
func TextReply(text string) Reply {
	return Reply{Text: text}
}
