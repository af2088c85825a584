// Package protocol implements the line-oriented wire format spoken by chat
// clients. Each command or event is a single flat object on one line, e.g.
//
//	{"type":"login","username":"alice","password":"p1"}
//
// Values are plain strings with no escaping: an embedded quote or brace in a
// field value corrupts that line. This is a documented limitation of the wire
// format, kept behind this package so a stricter codec could replace it.
package protocol

// Command type discriminators as they appear on the wire.
const (
	TypeRegister      = "register"
	TypeLogin         = "login"
	TypeLogout        = "logout"
	TypeCreateRoom    = "create_room"
	TypeListRooms     = "list_rooms"
	TypeJoin          = "join"
	TypeLeave         = "leave"
	TypeRoomUsers     = "room_users"
	TypeUserList      = "user_list"
	TypeDirectMessage = "direct_message"
	TypeDMHistory     = "dm_history"
	TypeTyping        = "typing"
	TypeReaction      = "reaction"
	TypeMessage       = "message"
)

// Command is one decoded client line. Type selects which of the remaining
// fields are meaningful; fields absent from the line decode as "".
type Command struct {
	Type     string
	Username string
	Password string
	Room     string
	To       string
	Text     string
	With     string
	Msg      string
	Emoji    string
	Raw      string
}
