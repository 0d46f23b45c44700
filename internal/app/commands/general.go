package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/tutur3u/discordbot/internal/discord"
)

func (s *Set) ping(context.Context, Request) (discord.Message, error) {
	return discord.Text("🏓 Pong!"), nil
}

func (s *Set) help(context.Context, Request) (discord.Message, error) {
	var b strings.Builder
	b.WriteString("📖 **Available commands**\n")
	for _, c := range s.order {
		fmt.Fprintf(&b, "`/%s` - %s\n", c.Definition.Name, c.Definition.Description)
	}
	return discord.Text(strings.TrimRight(b.String(), "\n")), nil
}
