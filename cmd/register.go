package cmd

import (
	"github.com/eraiza0816/assistant-discord/discord"
	"github.com/eraiza0816/assistant-discord/loader"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the slash commands with Discord and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.ValidateDiscord(); err != nil {
			return err
		}
		commands, err := loader.LoadCommands(cfg.CommandsFile)
		if err != nil {
			return err
		}
		// REST calls only; the gateway is never opened.
		session, err := discord.NewSession(cfg.DiscordBotToken, levelVar.Level())
		if err != nil {
			return err
		}
		return discord.RegisterCommands(session, cfg.DiscordApplicationID, commands, logger)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(registerCmd)
}
