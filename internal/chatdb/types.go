package chatdb

import "imsgd/internal/tapback"

// Conversation is an assembled chat with its participants and most
// recent non-reaction message. Snapshots are immutable: every query
// rebuilds them from source state.
type Conversation struct {
	ID           int64         `json:"id"`
	GUID         string        `json:"guid"`
	DisplayName  string        `json:"displayName"`
	Participants []Participant `json:"participants"`
	LastMessage  *Message      `json:"lastMessage,omitempty"`
	UnreadCount  int           `json:"unreadCount"`
	IsGroup      bool          `json:"isGroup"`
	GroupPhoto   string        `json:"groupPhoto,omitempty"`
}

// Participant is a conversation member resolved from the handle table.
type Participant struct {
	ID     int64  `json:"id"`
	Handle string `json:"handle"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
	IsMe   bool   `json:"isMe"`
}

// Message is a single chat.db message row translated to the domain
// model. Rows classified as tapbacks never surface as Messages; they
// fold into the target's Reactions instead.
type Message struct {
	GUID           string       `json:"guid"`
	RowID          int64        `json:"rowId"`
	ConversationID int64        `json:"conversationId"`
	Text           *string      `json:"text"`
	Sender         string       `json:"sender"`
	SenderName     string       `json:"senderName"`
	Timestamp      int64        `json:"timestamp"`
	FromMe         bool         `json:"fromMe"`
	Read           bool         `json:"read"`
	Sent           bool         `json:"sent"`
	Delivered      bool         `json:"delivered"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Reactions      []Reaction   `json:"reactions,omitempty"`
	AssociatedGUID string       `json:"associatedMessageGuid,omitempty"`
	AssociatedType int64        `json:"associatedMessageType,omitempty"`
	ExpressiveSend string       `json:"expressiveSendStyleId,omitempty"`
}

// Attachment is a file attached to a message. Path is relative to the
// configured attachment root; the serving layer resolves it.
type Attachment struct {
	ID           int64  `json:"id"`
	MessageGUID  string `json:"messageGuid"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	TotalBytes   int64  `json:"totalBytes"`
	TransferName string `json:"transferName"`
	Path         string `json:"path"`
	IsSticker    bool   `json:"isSticker"`
	Hidden       bool   `json:"hidden"`
}

// Reaction is a materialized tapback attached to a message. Only add
// reactions materialize; a removed reaction simply fails to reappear on
// the next query.
type Reaction struct {
	Kind       tapback.Kind `json:"type"`
	Sender     string       `json:"sender"`
	SenderName string       `json:"senderName"`
	FromMe     bool         `json:"fromMe"`
}

// MessagePage is one page of a conversation's messages in chronological
// order. HasMore is a lower-bound hint, not an exact count.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"hasMore"`
}
