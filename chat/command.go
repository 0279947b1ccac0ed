package chat

import (
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"
)

// Command is a parsed bot control command.
type Command int

const (
	CommandNone Command = iota
	CommandOn
	CommandOff
	CommandStatus
)

const commandPrefix = "!tunebridge"

// ParseCommand extracts a bot command from a chat message. Messages that are
// not commands, or carry an unknown subcommand, return CommandNone.
func ParseCommand(text string) Command {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.EqualFold(fields[0], commandPrefix) {
		return CommandNone
	}
	if len(fields) < 2 {
		return CommandStatus
	}
	switch strings.ToLower(fields[1]) {
	case "on", "enable":
		return CommandOn
	case "off", "disable":
		return CommandOff
	case "status":
		return CommandStatus
	default:
		return CommandNone
	}
}

// IsPrivileged reports whether the sender may control the bot: the
// broadcaster or a moderator of the channel.
func IsPrivileged(msg twitch.PrivateMessage) bool {
	if _, ok := msg.User.Badges["broadcaster"]; ok {
		return true
	}
	if _, ok := msg.User.Badges["moderator"]; ok {
		return true
	}
	return msg.Tags["mod"] == "1"
}
