package bot

import (
	"fmt"

	"zhigulbot/bot/features/betting"
	"zhigulbot/bot/features/charts"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	CommandStart   = "start"
	CommandBet     = "bet"
	CommandChart   = "chart"
	CommandBalance = "balance"
	CommandHistory = "history"
)

// Commands returns the slash command definitions
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandStart,
			Description: "Open an account on the ZHIGUL exchange",
		},
		{
			Name:        CommandBet,
			Description: "Stake bits on the next price move",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "direction",
					Description: "Where the price goes next",
					Required:    true,
					Choices:     betting.Choices,
				},
			},
		},
		{
			Name:        CommandChart,
			Description: "Show the ZHIGUL price chart",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "view",
					Description: "Recent rate or the full record",
					Required:    false,
					Choices:     charts.Choices,
				},
			},
		},
		{
			Name:        CommandBalance,
			Description: "Check your current balance",
		},
		{
			Name:        CommandHistory,
			Description: "Show your last settled wagers",
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := Commands()
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	log.Infof("Registered %d slash commands", len(registered))
	return nil
}
