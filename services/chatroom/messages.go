package chatroom

import "encoding/json"

// clientMsg is the envelope every inbound message is decoded into.
// Only the fields relevant to the message's type are populated; the
// rest are simply left at their zero value.
type clientMsg struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`
	Chatroom string `json:"chatroom,omitempty"`
	Message  string `json:"message,omitempty"`
}

func decodeClientMsg(payload string) (clientMsg, error) {
	var m clientMsg
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return clientMsg{}, ErrMalformedMessage
	}
	if m.Type == "" {
		return clientMsg{}, ErrMalformedMessage
	}
	return m, nil
}

// The helpers below each build one of the server's outbound message
// shapes and marshal it. Marshal errors are impossible here (every
// field is a string or a slice of strings/ints) so they're discarded.

func queryNameMsg() string {
	b, _ := json.Marshal(map[string]string{"type": "query", "query": "name"})
	return string(b)
}

func joinAckMsg(chatroomName string) string {
	b, _ := json.Marshal(map[string]string{"type": "join", "chatroom": chatroomName})
	return string(b)
}

func noticeMsg(text string) string {
	b, _ := json.Marshal(map[string]string{"type": "notice", "notice": text})
	return string(b)
}

func listingEventMsg(rooms []roomSummary) string {
	listing := make([]map[string]any, 0, len(rooms))
	for _, r := range rooms {
		listing = append(listing, map[string]any{"name": r.Name, "count": r.Count})
	}
	b, _ := json.Marshal(map[string]any{
		"type":  "event",
		"event": map[string]any{"type": "listing", "chatrooms": listing},
	})
	return string(b)
}

func updateRoomEventMsg(name string, count int) string {
	b, _ := json.Marshal(map[string]any{
		"type": "event",
		"event": map[string]any{
			"type": "update",
			"data": map[string]any{"name": name, "count": count},
		},
	})
	return string(b)
}

func messageEventMsg(from, message string) string {
	b, _ := json.Marshal(map[string]any{
		"type":  "event",
		"event": map[string]string{"type": "message", "name": from, "message": message},
	})
	return string(b)
}

func newUserEventMsg(name string) string {
	b, _ := json.Marshal(map[string]any{
		"type":  "event",
		"event": map[string]string{"type": "newuser", "name": name},
	})
	return string(b)
}

func logoffEventMsg(name string) string {
	b, _ := json.Marshal(map[string]any{
		"type":  "event",
		"event": map[string]string{"type": "logoff", "name": name},
	})
	return string(b)
}

func newChatroomEventMsg(name string) string {
	b, _ := json.Marshal(map[string]any{
		"type":  "event",
		"event": map[string]string{"type": "newchatroom", "name": name},
	})
	return string(b)
}
