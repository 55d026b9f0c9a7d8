// Package send delivers outgoing messages through the host's Messages
// app scripting interface. The daemon core never depends on it: a sent
// message only surfaces back through chat.db on a later poll, so there
// is no synchronous acknowledgement beyond the script exiting cleanly.
package send

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Sender sends a text to a single handle or an existing group chat.
type Sender interface {
	SendText(ctx context.Context, handle, text string) error
	SendGroupText(ctx context.Context, chatGUID, text string) error
}

// AppleScript shells out to osascript, the same automation surface the
// Messages app exposes to any local script.
type AppleScript struct {
	logger *zap.Logger
	// run is swappable for tests.
	run func(ctx context.Context, script string) error
}

// NewAppleScript creates an osascript-backed sender.
func NewAppleScript(logger *zap.Logger) *AppleScript {
	return &AppleScript{
		logger: logger,
		run: func(ctx context.Context, script string) error {
			out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
			if err != nil {
				return fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
			}
			return nil
		},
	}
}

// SendText sends to a single buddy handle.
func (s *AppleScript) SendText(ctx context.Context, handle, text string) error {
	script := fmt.Sprintf(
		`tell application "Messages" to send %s to buddy %s of (service 1 whose service type is iMessage)`,
		quote(text), quote(handle))
	if err := s.run(ctx, script); err != nil {
		return err
	}
	s.logger.Info("message sent", zap.String("handle", handle))
	return nil
}

// SendGroupText sends to an existing group chat by its chat GUID.
func (s *AppleScript) SendGroupText(ctx context.Context, chatGUID, text string) error {
	script := fmt.Sprintf(
		`tell application "Messages" to send %s to chat id %s`,
		quote(text), quote(chatGUID))
	if err := s.run(ctx, script); err != nil {
		return err
	}
	s.logger.Info("group message sent", zap.String("chat_guid", chatGUID))
	return nil
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
