package chatdb

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"imsgd/internal/appletime"
	"imsgd/internal/tapback"
	"imsgd/internal/typedstream"
)

// Over-fetch multiple for pagination: an unknown fraction of fetched
// rows are tapbacks and get filtered out, so fetch extra to still fill
// the page. A pathological reaction-heavy conversation can under-fill
// a page regardless; HasMore stays a lower-bound hint.
const overfetchFactor = 3

const defaultPageSize = 50

// messageRow is the raw shape scanned out of the message table before
// classification and decoding.
type messageRow struct {
	rowID          int64
	guid           string
	text           sql.NullString
	body           []byte
	handle         string
	date           int64
	fromMe         bool
	read           bool
	sent           bool
	delivered      bool
	hasAttachments bool
	assocGUID      string
	assocType      int64
	expressive     string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessageRow(s rowScanner) (*messageRow, error) {
	var m messageRow
	err := s.Scan(
		&m.rowID, &m.guid, &m.text, &m.body,
		&m.handle, &m.date,
		&m.fromMe, &m.read, &m.sent, &m.delivered,
		&m.hasAttachments,
		&m.assocGUID, &m.assocType, &m.expressive,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessages returns one page of a conversation's messages, newest
// page first but ordered oldest-first within the page. beforeMS
// constrains the query to rows strictly before the cursor timestamp;
// zero means no cursor. Tapback rows never appear as messages: they
// fold into their target's Reactions.
func (r *Reader) GetMessages(convID int64, limit int, beforeMS int64) (*MessagePage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	beforeRaw := int64(math.MaxInt64)
	if beforeMS > 0 {
		beforeRaw = appletime.FromUnixMilli(beforeMS)
	}

	rows, err := r.db.Query(queryMessagePage, convID, beforeRaw, limit*overfetchFactor)
	if err != nil {
		return nil, fmt.Errorf("query messages for chat %d: %w", convID, err)
	}
	defer func() { _ = rows.Close() }()

	var regular, reactionRows []*messageRow
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if tapback.IsReaction(m.assocType) {
			reactionRows = append(reactionRows, m)
		} else {
			regular = append(regular, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reactions := r.groupReactions(reactionRows)

	page := regular
	hasMore := false
	if len(regular) > limit {
		page = regular[:limit]
		hasMore = true
	}

	msgs := make([]Message, 0, len(page))
	for _, row := range page {
		msg := r.messageFromRow(row, convID)
		msg.Reactions = reactions[msg.GUID]
		if row.hasAttachments {
			msg.Attachments = r.attachments(row.rowID, msg.GUID)
		}
		msgs = append(msgs, msg)
	}

	// The query returns newest first; the page reads oldest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return &MessagePage{Messages: msgs, HasMore: hasMore}, nil
}

// groupReactions maps target message GUIDs to their materialized
// reactions. Remove rows are recognized so they stay out of the
// message stream, but only adds materialize: a fresh query of source
// state means a removed reaction simply never reappears.
func (r *Reader) groupReactions(rows []*messageRow) map[string][]Reaction {
	if len(rows) == 0 {
		return nil
	}
	grouped := make(map[string][]Reaction)
	for _, row := range rows {
		if tapback.IsRemove(row.assocType) {
			continue
		}
		kind, ok := tapback.KindOf(row.assocType)
		if !ok {
			continue
		}
		target := tapback.TargetGUID(row.assocGUID)
		if target == "" {
			continue
		}
		grouped[target] = append(grouped[target], Reaction{
			Kind:       kind,
			Sender:     row.handle,
			SenderName: r.senderName(row),
			FromMe:     row.fromMe,
		})
	}
	return grouped
}

func (r *Reader) messageFromRow(row *messageRow, convID int64) Message {
	guid := row.guid
	if guid == "" {
		guid = strconv.FormatInt(row.rowID, 10)
	}
	msg := Message{
		GUID:           guid,
		RowID:          row.rowID,
		ConversationID: convID,
		Sender:         row.handle,
		SenderName:     r.senderName(row),
		Timestamp:      appletime.ToUnixMilli(row.date),
		FromMe:         row.fromMe,
		Read:           row.read,
		Sent:           row.sent,
		Delivered:      row.delivered,
		AssociatedGUID: row.assocGUID,
		AssociatedType: row.assocType,
		ExpressiveSend: row.expressive,
	}
	if text := r.messageText(row); text != "" {
		msg.Text = &text
	}
	return msg
}

// messageText prefers the plain text column; an empty column falls
// back to decoding the attributedBody blob. Decode failures yield no
// text, never an error.
func (r *Reader) messageText(row *messageRow) string {
	if row.text.Valid && row.text.String != "" {
		return row.text.String
	}
	if len(row.body) > 0 {
		return typedstream.Decode(row.body)
	}
	return ""
}

func (r *Reader) senderName(row *messageRow) string {
	if row.fromMe {
		return "Me"
	}
	return r.resolveName(row.handle)
}

// attachments is best effort: a malformed attachment row degrades to
// an empty list rather than failing the whole page.
func (r *Reader) attachments(messageRowID int64, messageGUID string) []Attachment {
	rows, err := r.db.Query(queryAttachments, messageRowID)
	if err != nil {
		r.logger.Warn("attachment query failed",
			zap.Int64("message_rowid", messageRowID), zap.Error(err))
		return nil
	}
	defer func() { _ = rows.Close() }()

	var atts []Attachment
	for rows.Next() {
		var a Attachment
		var filename string
		if err := rows.Scan(&a.ID, &filename, &a.MimeType, &a.TotalBytes,
			&a.TransferName, &a.IsSticker, &a.Hidden); err != nil {
			r.logger.Warn("attachment scan failed",
				zap.Int64("message_rowid", messageRowID), zap.Error(err))
			continue
		}
		a.MessageGUID = messageGUID
		a.Filename = filename
		a.Path = relativePath(filename)
		atts = append(atts, a)
	}
	return atts
}

// relativePath rewrites chat.db's stored attachment paths (absolute or
// home-relative) to paths under the configured attachment root.
func relativePath(filename string) string {
	if i := strings.Index(filename, "Attachments/"); i >= 0 {
		return filename[i+len("Attachments/"):]
	}
	return strings.TrimPrefix(filename, "~/")
}
