package charts

import (
	"context"
	"fmt"

	"zhigulbot/bot/common"
	"zhigulbot/chart"
	"zhigulbot/models"
	"zhigulbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	ViewShort = "short"
	ViewFull  = "full"
)

// Source serves the latest rendered charts
type Source interface {
	Read(w chart.Window) ([]byte, error)
}

// Feature handles /chart
type Feature struct {
	prices service.PriceService
	charts Source
}

func New(prices service.PriceService, charts Source) *Feature {
	return &Feature{
		prices: prices,
		charts: charts,
	}
}

// Choices offered by the view option
var Choices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "📈 Current rate", Value: ViewShort},
	{Name: "📑 Historical record", Value: ViewFull},
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring chart response: %v", err)
		return
	}

	state, err := f.prices.GetState(ctx)
	if err != nil {
		if common.ErrorMessage(err) == common.MsgGeneric {
			log.WithError(err).Error("Failed to read price state")
		}
		common.FollowUpWithError(s, i, common.ErrorMessage(err))
		return
	}

	view, _ := common.StringOption(i, "view")
	var images []common.Image
	for _, w := range WindowsForView(view) {
		data, err := f.charts.Read(w)
		if err != nil {
			log.WithError(err).WithField("window", w.Name).Warn("Chart not available")
			continue
		}
		images = append(images, common.Image{Name: w.Filename(), Data: data})
	}

	common.FollowUpWithImages(s, i, Caption(state), images)
}

// WindowsForView returns the charts attached for a view
func WindowsForView(view string) []chart.Window {
	if view == ViewFull {
		return []chart.Window{chart.WindowAll, chart.WindowLast60}
	}
	return []chart.Window{chart.WindowLast14}
}

// Caption describes the last move and the oracle's call
func Caption(state *models.PriceState) string {
	return fmt.Sprintf("ZHIGUL moved %s → %s. The oracle predicts %s (%s).",
		common.FormatPrice(state.PreviousPrice),
		common.FormatPrice(state.CurrentPrice),
		common.FormatPrice(state.PredictedPrice),
		common.FormatDirection(state.OracleDirection()))
}
