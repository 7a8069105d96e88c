// Package platform bridges the simulator to the chat surface the game
// runs on. The engine only knows the Sink interface; deployments wire
// a Redis-backed publisher that the bot process on the other side
// consumes, or the no-op sink for headless runs and tests.
package platform

import "context"

// Embed is a rich chat message rendered by the consuming bot.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Message addresses one guild channel.
type Message struct {
	GuildID   int64  `json:"guild_id"`
	ChannelID int64  `json:"channel_id"`
	Content   string `json:"content,omitempty"`
	Embed     *Embed `json:"embed,omitempty"`
}

// Sink delivers messages to the chat surface.
type Sink interface {
	Send(ctx context.Context, msg *Message) error
}

// NopSink drops everything. Used when Redis is disabled.
type NopSink struct{}

func (NopSink) Send(ctx context.Context, msg *Message) error { return nil }
