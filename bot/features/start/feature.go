package start

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

// Feature handles /start
type Feature struct {
	accounts service.AccountService
	stake    int64
	interval time.Duration
}

func New(accounts service.AccountService, stake int64, interval time.Duration) *Feature {
	return &Feature{
		accounts: accounts,
		stake:    stake,
		interval: interval,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	discordID, name, err := common.InteractionPlayer(i)
	if err != nil {
		log.WithError(err).Error("Failed to identify player")
		common.RespondWithError(s, i, common.MsgGeneric)
		return
	}

	account, created, err := f.accounts.Register(ctx, discordID, name)
	if err != nil {
		log.WithError(err).WithField("discordID", discordID).Error("Failed to register player")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithMessage(s, i, welcomeMessage(name, account, created, f.stake, f.interval), true)
}

func welcomeMessage(name string, account *models.Account, created bool, stake int64, interval time.Duration) string {
	greeting := fmt.Sprintf("Welcome back, %s.", name)
	if created {
		greeting = fmt.Sprintf("Welcome to the ZHIGUL exchange, %s!", name)
	}
	return fmt.Sprintf("%s Your balance: **%s bits**.\n"+
		"Every wager stakes **%s bits** on whether the price goes up or down by the next update, every %s. "+
		"Use `/bet` to play, `/chart` to see the market.",
		greeting,
		common.FormatBalance(account.Balance),
		common.FormatBalance(stake),
		common.FormatInterval(interval))
}
