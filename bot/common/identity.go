package common

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// InteractionUser returns the invoking user for guild and DM interactions
func InteractionUser(i *discordgo.InteractionCreate) (*discordgo.User, error) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User, nil
	}
	if i.User != nil {
		return i.User, nil
	}
	return nil, fmt.Errorf("interaction has no user")
}

// InteractionPlayer returns the player's numeric Discord ID and display name
func InteractionPlayer(i *discordgo.InteractionCreate) (int64, string, error) {
	user, err := InteractionUser(i)
	if err != nil {
		return 0, "", err
	}
	discordID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("error parsing Discord ID %s: %w", user.ID, err)
	}

	name := user.Username
	if i.Member != nil && i.Member.Nick != "" {
		name = i.Member.Nick
	} else if user.GlobalName != "" {
		name = user.GlobalName
	}
	return discordID, name, nil
}

// StringOption returns the named string option of a slash command
func StringOption(i *discordgo.InteractionCreate, name string) (string, bool) {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue(), true
		}
	}
	return "", false
}
