package history

import (
	"context"
	"fmt"
	"strings"

	"zhigulbot/bot/common"
	"zhigulbot/models"
	"zhigulbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const historyLimit = 10

// Feature handles /history
type Feature struct {
	accounts service.AccountService
}

func New(accounts service.AccountService) *Feature {
	return &Feature{accounts: accounts}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, _, err := common.InteractionPlayer(i)
	if err != nil {
		log.WithError(err).Error("Failed to identify player")
		common.RespondWithError(s, i, common.MsgGeneric)
		return
	}

	records, err := f.accounts.GetWagerHistory(ctx, discordID, historyLimit)
	if err != nil {
		log.Errorf("Error getting wager history for %d: %v", discordID, err)
		common.RespondWithError(s, i, common.MsgGeneric)
		return
	}

	common.RespondWithEmbed(s, i, historyEmbed(records), true)
}

func historyEmbed(records []*models.WagerRecord) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📑 Your last wagers",
		Color: 0x5865F2,
	}
	if len(records) == 0 {
		embed.Description = "No settled wagers yet. Place one with `/bet`."
		return embed
	}

	var lines []string
	var net int64
	for _, r := range records {
		origin := ""
		if r.Origin == models.OriginOracle {
			origin = " (oracle)"
		}
		lines = append(lines, fmt.Sprintf("%s%s  %s → %s  **%s**",
			common.FormatDirection(r.Direction),
			origin,
			common.FormatPrice(r.PriceBefore),
			common.FormatPrice(r.PriceAfter),
			common.FormatPayout(r.Payout)))
		net += r.Payout
	}
	embed.Description = strings.Join(lines, "\n")
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Net over %d wagers: %s bits", len(records), common.FormatPayout(net)),
	}
	return embed
}
