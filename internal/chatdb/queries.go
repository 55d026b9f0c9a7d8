package chatdb

// Schema mapping for chat.db. The schema is undocumented and drifts
// across macOS releases; every statement the Reader issues lives here
// so drift only ever touches this file. Reaction code literals in the
// WHERE clauses mirror internal/tapback (2000-2005 add, 3000-3005
// remove).

const (
	// Chats that have at least one associated message.
	queryConversations = `
		SELECT c.ROWID, COALESCE(c.guid, ''), COALESCE(c.display_name, '')
		FROM chat c
		WHERE EXISTS (
			SELECT 1 FROM chat_message_join j WHERE j.chat_id = c.ROWID
		)`

	queryConversation = queryConversations + ` AND c.ROWID = ?`

	// Members of a chat ordered by how recently each one spoke.
	queryParticipants = `
		SELECT h.ROWID, h.id
		FROM chat_handle_join chj
		JOIN handle h ON h.ROWID = chj.handle_id
		LEFT JOIN chat_message_join cmj ON cmj.chat_id = chj.chat_id
		LEFT JOIN message m
			ON m.ROWID = cmj.message_id AND m.handle_id = h.ROWID
		WHERE chj.chat_id = ?
		GROUP BY h.ROWID, h.id
		ORDER BY COALESCE(MAX(m.date), 0) DESC`

	queryUnreadCount = `
		SELECT COUNT(*)
		FROM message m
		JOIN chat_message_join j ON j.message_id = m.ROWID
		WHERE j.chat_id = ? AND m.is_from_me = 0 AND m.is_read = 0`

	messageColumns = `
		m.ROWID, COALESCE(m.guid, ''), m.text, m.attributedBody,
		COALESCE(h.id, ''), COALESCE(m.date, 0),
		COALESCE(m.is_from_me, 0), COALESCE(m.is_read, 0),
		COALESCE(m.is_sent, 0), COALESCE(m.is_delivered, 0),
		COALESCE(m.cache_has_attachments, 0),
		COALESCE(m.associated_message_guid, ''),
		COALESCE(m.associated_message_type, 0),
		COALESCE(m.expressive_send_style_id, '')`

	// Most recent message of a chat that is not a tapback event.
	queryLastMessage = `
		SELECT ` + messageColumns + `
		FROM message m
		JOIN chat_message_join j ON j.message_id = m.ROWID
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE j.chat_id = ?
		  AND NOT (COALESCE(m.associated_message_type, 0) BETWEEN 2000 AND 2005
		        OR COALESCE(m.associated_message_type, 0) BETWEEN 3000 AND 3005)
		ORDER BY m.date DESC
		LIMIT 1`

	// One over-fetched page of raw rows, newest first, strictly before
	// the cursor. Tapback rows are filtered out in Go after grouping.
	queryMessagePage = `
		SELECT ` + messageColumns + `
		FROM message m
		JOIN chat_message_join j ON j.message_id = m.ROWID
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE j.chat_id = ? AND m.date < ?
		ORDER BY m.date DESC
		LIMIT ?`

	queryAttachments = `
		SELECT a.ROWID, COALESCE(a.filename, ''), COALESCE(a.mime_type, ''),
		       COALESCE(a.total_bytes, 0), COALESCE(a.transfer_name, ''),
		       COALESCE(a.is_sticker, 0), COALESCE(a.hide_attachment, 0)
		FROM attachment a
		JOIN message_attachment_join j ON j.attachment_id = a.ROWID
		WHERE j.message_id = ?
		ORDER BY a.ROWID`

	// Latest group icon: the attachment of the most recent group-photo
	// change event in the chat.
	queryGroupPhoto = `
		SELECT COALESCE(a.filename, '')
		FROM message m
		JOIN chat_message_join j ON j.message_id = m.ROWID
		JOIN message_attachment_join maj ON maj.message_id = m.ROWID
		JOIN attachment a ON a.ROWID = maj.attachment_id
		WHERE j.chat_id = ? AND COALESCE(m.group_action_type, 0) = 1
		ORDER BY m.date DESC
		LIMIT 1`
)
