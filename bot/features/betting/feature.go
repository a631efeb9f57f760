package betting

import (
	"context"
	"fmt"
	"time"

	"zhigulbot/bot/common"
	"zhigulbot/models"
	"zhigulbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles /bet
type Feature struct {
	wagers   service.WagerService
	interval time.Duration
}

func New(wagers service.WagerService, interval time.Duration) *Feature {
	return &Feature{
		wagers:   wagers,
		interval: interval,
	}
}

// Choices offered by the direction option
var Choices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "🚀 Up", Value: string(models.ChoiceUp)},
	{Name: "🚽 Down", Value: string(models.ChoiceDown)},
	{Name: "🙏 Agree with the oracle", Value: string(models.ChoiceOracle)},
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, name, err := common.InteractionPlayer(i)
	if err != nil {
		log.WithError(err).Error("Failed to identify player")
		common.RespondWithError(s, i, common.MsgGeneric)
		return
	}

	raw, _ := common.StringOption(i, "direction")
	choice, ok := models.ParseChoice(raw)
	if !ok {
		common.RespondWithError(s, i, common.MsgInvalidChoice)
		return
	}

	placed, err := f.wagers.PlaceWager(ctx, discordID, name, choice)
	if err != nil {
		if common.ErrorMessage(err) == common.MsgGeneric {
			log.WithFields(log.Fields{
				"discordID": discordID,
				"choice":    choice,
				"error":     err,
			}).Error("Failed to place wager")
		}
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithMessage(s, i, placedMessage(placed, f.interval), true)
}

func placedMessage(placed *models.PlacedWager, interval time.Duration) string {
	w := placed.Wager
	source := ""
	if w.Origin == models.OriginOracle {
		source = " following the oracle"
	}
	return fmt.Sprintf("Bold move. **%s bits** on %s%s. Settles at the next update, every %s.\nYour balance: **%s bits**",
		common.FormatBalance(w.Stake),
		common.FormatDirection(w.Direction),
		source,
		common.FormatInterval(interval),
		common.FormatBalance(placed.Balance))
}
