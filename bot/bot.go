package bot

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"zhigulbot/bot/common"
	"zhigulbot/bot/features/balance"
	"zhigulbot/bot/features/betting"
	"zhigulbot/bot/features/charts"
	"zhigulbot/bot/features/history"
	"zhigulbot/bot/features/start"
	"zhigulbot/events"
	"zhigulbot/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token             string
	GuildID           string
	AnnounceChannelID string
	WagerStake        int64
	CycleInterval     time.Duration
}

type Bot struct {
	config    Config
	session   *discordgo.Session
	announcer *Announcer

	startFeature   *start.Feature
	bettingFeature *betting.Feature
	chartFeature   *charts.Feature
	balanceFeature *balance.Feature
	historyFeature *history.Feature
}

func New(config Config, accountService service.AccountService, wagerService service.WagerService, priceService service.PriceService, chartSource charts.Source, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages

	bot := &Bot{
		config:         config,
		session:        dg,
		startFeature:   start.New(accountService, config.WagerStake, config.CycleInterval),
		bettingFeature: betting.New(wagerService, config.CycleInterval),
		chartFeature:   charts.New(priceService, chartSource),
		balanceFeature: balance.New(accountService, wagerService),
		historyFeature: history.New(accountService),
	}

	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleDirectMessage)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	if config.AnnounceChannelID != "" {
		bot.announcer = NewAnnouncer(dg, config.AnnounceChannelID)
		bot.announcer.Attach(eventBus)
		log.WithField("channel", config.AnnounceChannelID).Info("Cycle announcements enabled")
	}

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// handleCommands dispatches slash commands to their feature
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case CommandStart:
		b.startFeature.HandleCommand(s, i)
	case CommandBet:
		b.bettingFeature.HandleCommand(s, i)
	case CommandChart:
		b.chartFeature.HandleCommand(s, i)
	case CommandBalance:
		b.balanceFeature.HandleCommand(s, i)
	case CommandHistory:
		b.historyFeature.HandleCommand(s, i)
	default:
		log.Warnf("Unknown command: %s", i.ApplicationCommandData().Name)
	}
}

// handleDirectMessage answers free text sent to the bot
func (b *Bot) handleDirectMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, common.MsgFallback); err != nil {
		log.Errorf("Error replying to direct message from %s: %v", m.Author.ID, err)
	}
}
