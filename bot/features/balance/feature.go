package balance

import (
	"context"
	"fmt"

	"zhigulbot/bot/common"
	"zhigulbot/models"
	"zhigulbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles /balance
type Feature struct {
	accounts service.AccountService
	wagers   service.WagerService
}

func New(accounts service.AccountService, wagers service.WagerService) *Feature {
	return &Feature{
		accounts: accounts,
		wagers:   wagers,
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

	account, _, err := f.accounts.Register(ctx, discordID, name)
	if err != nil {
		log.Errorf("Error getting account %d: %v", discordID, err)
		common.RespondWithError(s, i, "Unable to retrieve balance. Please try again.")
		return
	}

	pending, err := f.wagers.GetPendingWager(ctx, discordID)
	if err != nil {
		// The balance is still worth showing
		log.Warnf("Error getting pending wager for %d: %v", discordID, err)
	}

	common.RespondWithMessage(s, i, balanceMessage(name, account, pending), true)
}

func balanceMessage(name string, account *models.Account, pending *models.PendingWager) string {
	message := fmt.Sprintf("%s, your balance: **%s bits**", name, common.FormatBalance(account.Balance))
	if pending != nil {
		message += fmt.Sprintf("\nOpen wager: %s for **%s bits**, settles at the next update.",
			common.FormatDirection(pending.Direction), common.FormatBalance(pending.Stake))
	}
	return message
}
