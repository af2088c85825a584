package protocol

import "strings"

// Decode parses one trimmed client line into a Command. Decoding is lenient
// by design: a missing field yields an empty string, never a failure, and a
// line whose type matches no known command is returned as-is with only Raw
// and Type set so the caller can report it.
func Decode(line string) Command {
	cmd := Command{Type: Field(line, "type"), Raw: line}

	switch cmd.Type {
	case TypeRegister, TypeLogin:
		cmd.Username = Field(line, "username")
		cmd.Password = Field(line, "password")
	case TypeCreateRoom, TypeJoin, TypeRoomUsers, TypeTyping:
		cmd.Room = Field(line, "room")
	case TypeDirectMessage:
		cmd.To = Field(line, "to")
		cmd.Text = Field(line, "text")
	case TypeDMHistory:
		cmd.With = Field(line, "with")
	case TypeReaction:
		cmd.Room = Field(line, "room")
		cmd.Msg = Field(line, "msg")
		cmd.Emoji = Field(line, "emoji")
	case TypeMessage:
		cmd.Text = Field(line, "text")
	}

	return cmd
}

// Field extracts the string value for key from a wire line. A key that does
// not appear, or a value with no closing quote, yields "". The value is taken
// verbatim up to the next quote character; embedded quotes are not handled.
func Field(line, key string) string {
	marker := `"` + key + `":"`
	start := strings.Index(line, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(line[start:], `"`)
	if end < 0 {
		return ""
	}
	return line[start : start+end]
}
