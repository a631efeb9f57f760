package bot

import (
	"context"
	"fmt"

	"zhigulbot/bot/common"
	"zhigulbot/events"
	"zhigulbot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ChannelSender is the part of the Discord session the announcer needs
type ChannelSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts settled cycles to a channel
type Announcer struct {
	sender    ChannelSender
	channelID string
}

func NewAnnouncer(sender ChannelSender, channelID string) *Announcer {
	return &Announcer{
		sender:    sender,
		channelID: channelID,
	}
}

// Attach subscribes the announcer to committed cycles
func (a *Announcer) Attach(bus *events.Bus) {
	bus.Subscribe(events.EventTypeCycleSettled, a.handle)
}

func (a *Announcer) handle(ctx context.Context, event events.Event) {
	settled, ok := event.(events.CycleSettledEvent)
	if !ok {
		return
	}
	if _, err := a.sender.ChannelMessageSendEmbed(a.channelID, CycleEmbed(settled)); err != nil {
		log.WithError(err).WithField("cycleID", settled.CycleID).Error("Failed to announce cycle")
	}
}

// CycleEmbed summarizes a settled cycle
func CycleEmbed(e events.CycleSettledEvent) *discordgo.MessageEmbed {
	previous, _ := decimal.NewFromString(e.PreviousPrice)
	current, _ := decimal.NewFromString(e.CurrentPrice)
	predicted, _ := decimal.NewFromString(e.PredictedPrice)

	color := 0x95A5A6
	move := "flat"
	switch {
	case current.GreaterThan(previous):
		color = 0x2ECC71
		move = common.FormatDirection(models.DirectionUp)
	case current.LessThan(previous):
		color = 0xE74C3C
		move = common.FormatDirection(models.DirectionDown)
	}

	next := (&models.PriceState{CurrentPrice: current, PredictedPrice: predicted}).OracleDirection()
	oracle := fmt.Sprintf("%s (%s)", common.FormatPrice(predicted), common.FormatDirection(next))
	if e.ForecastDegraded {
		oracle += " ⚠️ stale"
	}

	return &discordgo.MessageEmbed{
		Title:       "📈 ZHIGUL update",
		Description: fmt.Sprintf("%s → **%s**, %s", common.FormatPrice(previous), common.FormatPrice(current), move),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Wagers", Value: fmt.Sprintf("%d", e.WagersResolved), Inline: true},
			{Name: "Winners / Losers", Value: fmt.Sprintf("%d / %d", e.Winners, e.Losers), Inline: true},
			{Name: "Net paid", Value: common.FormatPayout(e.NetPayout) + " bits", Inline: true},
			{Name: "Oracle", Value: oracle, Inline: false},
		},
		Timestamp: e.SettledAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
