package source

import (
	"fmt"
	"slices"
	"strings"
)

// Selectors are the DOM selectors a scraper uses to walk a platform's UI.
type Selectors struct {
	ChatList    string `toml:"chat_list" json:"chat_list" mapstructure:"chat_list"`
	ChatItem    string `toml:"chat_item" json:"chat_item" mapstructure:"chat_item"`
	MessageList string `toml:"message_list" json:"message_list" mapstructure:"message_list"`
	Message     string `toml:"message" json:"message" mapstructure:"message"`
	Timestamp   string `toml:"timestamp" json:"timestamp" mapstructure:"timestamp"`
}

// Platform describes one chat platform conversations are exported from.
type Platform struct {
	URL       string    `toml:"url" json:"url" mapstructure:"url"`
	Selectors Selectors `toml:"selectors" json:"selectors" mapstructure:"selectors"`
}

// Platforms maps a source tag, e.g. "claude", to its platform settings.
// A Platforms value is passed to each reader; there is no package-level
// registry.
type Platforms map[string]Platform

// DefaultPlatforms returns the settings for the platforms chatvault knows
// out of the box.
func DefaultPlatforms() Platforms {
	return Platforms{
		"claude": {
			URL: "https://claude.ai",
			Selectors: Selectors{
				ChatList:    ".conversation-list",
				ChatItem:    ".conversation-item",
				MessageList: ".message-list",
				Message:     ".message-content",
				Timestamp:   ".message-timestamp",
			},
		},
		"chatgpt": {
			URL: "https://chat.openai.com",
			Selectors: Selectors{
				ChatList:    `nav[data-testid="conversation-sidebar"]`,
				ChatItem:    `[data-testid="conversation-item"]`,
				MessageList: `[data-testid="conversation-messages"]`,
				Message:     ".markdown",
				Timestamp:   ".timestamp",
			},
		},
	}
}

// Names returns the platform tags in sorted order.
func (p Platforms) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve normalizes a source tag and checks it against p. An empty p accepts
// any non-empty tag.
func (p Platforms) Resolve(tag string) (string, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "", ErrMissingSource
	}
	if len(p) == 0 {
		return tag, nil
	}
	if _, ok := p[tag]; !ok {
		return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownPlatform, tag, strings.Join(p.Names(), ", "))
	}
	return tag, nil
}
