// Package chat contains the Twitch link-conversion bot.
//
// StartLinkBot connects to Twitch IRC with the configured bot account, joins
// every configured channel, and watches messages for music links. When a
// recognized link appears in a subscribed channel, the bot resolves it through
// the conversion engine and replies with the matching links on the other
// platforms.
//
// Broadcasters and moderators control the bot per channel with chat commands:
//
//	!tunebridge on      enable link conversion in this channel
//	!tunebridge off     disable link conversion in this channel
//	!tunebridge status  report whether conversion is enabled
//
// Subscription state lives in the channels table so it survives restarts.
//
// Credentials: the IRC client requires a bot username and an OAuth token with
// chat:read/chat:edit scopes (TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN).
package chat
