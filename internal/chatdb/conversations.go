package chatdb

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

type chatRow struct {
	id   int64
	guid string
	name string
}

// ListConversations assembles every chat that has at least one message,
// ordered by last-message timestamp descending.
func (r *Reader) ListConversations() ([]Conversation, error) {
	rows, err := r.db.Query(queryConversations)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chats []chatRow
	for rows.Next() {
		var c chatRow
		if err := rows.Scan(&c.id, &c.guid, &c.name); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	convs := make([]Conversation, 0, len(chats))
	for _, c := range chats {
		conv, err := r.assemble(c)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *conv)
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return lastActivity(convs[i]) > lastActivity(convs[j])
	})
	return convs, nil
}

// GetConversation assembles a single chat by row id. Returns nil, nil
// when the id does not exist.
func (r *Reader) GetConversation(id int64) (*Conversation, error) {
	var c chatRow
	err := r.db.QueryRow(queryConversation, id).Scan(&c.id, &c.guid, &c.name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query conversation %d: %w", id, err)
	}
	return r.assemble(c)
}

func (r *Reader) assemble(c chatRow) (*Conversation, error) {
	participants, err := r.participants(c.id)
	if err != nil {
		return nil, err
	}

	var unread int
	if err := r.db.QueryRow(queryUnreadCount, c.id).Scan(&unread); err != nil {
		return nil, fmt.Errorf("unread count for chat %d: %w", c.id, err)
	}

	last, err := r.lastMessage(c.id)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{
		ID:           c.id,
		GUID:         c.guid,
		Participants: participants,
		LastMessage:  last,
		UnreadCount:  unread,
		IsGroup:      len(participants) > 2,
	}
	conv.DisplayName = c.name
	if conv.DisplayName == "" {
		conv.DisplayName = deriveDisplayName(participants)
	}
	if conv.IsGroup {
		conv.GroupPhoto = r.groupPhoto(c.id)
	}
	return conv, nil
}

func (r *Reader) participants(chatID int64) ([]Participant, error) {
	rows, err := r.db.Query(queryParticipants, chatID)
	if err != nil {
		return nil, fmt.Errorf("query participants for chat %d: %w", chatID, err)
	}
	defer func() { _ = rows.Close() }()

	var participants []Participant
	for rows.Next() {
		var (
			id     int64
			handle string
		)
		if err := rows.Scan(&id, &handle); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p := Participant{
			ID:     id,
			Handle: handle,
			Name:   r.resolveName(handle),
		}
		if strings.ContainsRune(handle, '@') {
			p.Email = handle
		} else {
			p.Phone = handle
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *Reader) lastMessage(chatID int64) (*Message, error) {
	row, err := scanMessageRow(r.db.QueryRow(queryLastMessage, chatID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last message for chat %d: %w", chatID, err)
	}
	msg := r.messageFromRow(row, chatID)
	return &msg, nil
}

// groupPhoto is best effort: a missing or unreadable icon row never
// fails conversation assembly.
func (r *Reader) groupPhoto(chatID int64) string {
	var filename string
	err := r.db.QueryRow(queryGroupPhoto, chatID).Scan(&filename)
	if err != nil {
		return ""
	}
	return relativePath(filename)
}

// Display name fallback when the chat row stores none: join both names
// for a pair, "first and N others" beyond that.
func deriveDisplayName(participants []Participant) string {
	switch n := len(participants); n {
	case 0:
		return "Unknown"
	case 1:
		return participants[0].Name
	case 2:
		return participants[0].Name + ", " + participants[1].Name
	default:
		return fmt.Sprintf("%s and %d others", participants[0].Name, n-1)
	}
}

func lastActivity(c Conversation) int64 {
	if c.LastMessage == nil {
		return 0
	}
	return c.LastMessage.Timestamp
}
