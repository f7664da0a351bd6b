package domain

// Telegram update payloads, trimmed to the fields the bot reads.

type Update struct {
	UpdateID        int64            `json:"update_id"`
	Message         *ChatMessage     `json:"message,omitempty"`
	ChatJoinRequest *ChatJoinRequest `json:"chat_join_request,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type ChatMember struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type ChatMessage struct {
	MessageID      int64        `json:"message_id"`
	From           *ChatMember  `json:"from,omitempty"`
	Chat           Chat         `json:"chat"`
	Text           string       `json:"text,omitempty"`
	ReplyToMessage *ChatMessage `json:"reply_to_message,omitempty"`
	NewChatMembers []ChatMember `json:"new_chat_members,omitempty"`
}

type ChatJoinRequest struct {
	Chat Chat       `json:"chat"`
	From ChatMember `json:"from"`
}
