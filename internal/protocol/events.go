package protocol

import "strings"

// Server-to-client events. Each encoder renders exactly one wire line with no
// trailing newline; the session's write pump adds the line break.

func Success(message string) string {
	return `{"type":"success","message":"` + message + `"}`
}

func Error(message string) string {
	return `{"type":"error","message":"` + message + `"}`
}

func RoomList(rooms []string) string {
	return `{"type":"room_list","rooms":` + quoteList(rooms) + `}`
}

func RoomUsers(room string, users []string) string {
	return `{"type":"room_users","room":"` + room + `","users":` + quoteList(users) + `}`
}

func UserList(users []string) string {
	return `{"type":"user_list","users":` + quoteList(users) + `}`
}

// History embeds stored room entries verbatim: each entry is itself a
// rendered message event, so the joined result reads as an object array.
func History(room string, messages []string) string {
	return `{"type":"history","room":"` + room + `","messages":[` + strings.Join(messages, ",") + `]}`
}

func DMHistory(with string, messages []string) string {
	return `{"type":"dm_history","with":"` + with + `","messages":[` + strings.Join(messages, ",") + `]}`
}

func DirectMessage(from, text string) string {
	return `{"type":"direct_message","from":"` + from + `","text":"` + text + `"}`
}

func Message(room, nick, text string) string {
	return `{"type":"message","room":"` + room + `","nick":"` + nick + `","text":"` + text + `"}`
}

func Typing(room, nick string) string {
	return `{"type":"typing","room":"` + room + `","nick":"` + nick + `"}`
}

func Reaction(room, msgID, nick, emoji string) string {
	return `{"type":"reaction","room":"` + room + `","msg":"` + msgID + `","nick":"` + nick + `","emoji":"` + emoji + `"}`
}

func quoteList(items []string) string {
	if len(items) == 0 {
		return `[]`
	}
	return `["` + strings.Join(items, `","`) + `"]`
}
