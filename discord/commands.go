package discord

import (
	"context"
	"fmt"
	"strconv"
)

// Command names handled by the bot.
const (
	CommandAutoTranscribe = "autotranscribe"
	CommandHowTo          = "howto"
	CommandTranscribe     = "Transcribe"
)

// Interaction contexts.
const (
	contextGuild          = 0
	contextBotDM          = 1
	contextPrivateChannel = 2
)

// Commands returns the bot's application command definitions.
func Commands() []ApplicationCommand {
	return []ApplicationCommand{
		{
			Name:                     CommandAutoTranscribe,
			Type:                     CommandTypeChatInput,
			Description:              "Configures automatic transcription for this channel",
			DefaultMemberPermissions: strconv.Itoa(PermissionManageChannels),
			Contexts:                 []int{contextGuild},
			Options: []CommandOption{
				{
					Type:        OptionTypeSubcommand,
					Name:        "on",
					Description: "Enable automatic transcription in this channel",
					Options:     []CommandOption{},
				},
				{
					Type:        OptionTypeSubcommand,
					Name:        "off",
					Description: "Disable automatic transcription in this channel",
					Options:     []CommandOption{},
				},
			},
		},
		{
			Name:             CommandHowTo,
			Type:             CommandTypeChatInput,
			Description:      "Send information about how to use Transcriber",
			IntegrationTypes: []int{0, 1},
			Contexts:         []int{contextGuild, contextBotDM, contextPrivateChannel},
		},
		{
			Name:             CommandTranscribe,
			Type:             CommandTypeMessage,
			IntegrationTypes: []int{0, 1},
			Contexts:         []int{contextGuild, contextBotDM, contextPrivateChannel},
		},
	}
}

// RegisterCommands bulk-overwrites the application's global commands.
// When applicationID is empty it is discovered from the token.
func RegisterCommands(ctx context.Context, rest *RestClient, applicationID string) error {
	if applicationID == "" {
		app, err := rest.CurrentApplication(ctx)
		if err != nil {
			return fmt.Errorf("discover application id: %w", err)
		}
		applicationID = app.ID
	}
	return rest.BulkOverwriteCommands(ctx, applicationID, Commands())
}
