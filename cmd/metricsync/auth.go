package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/engineer-metrics/internal/credential"
	"github.com/nhle/engineer-metrics/internal/model"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store PSA API credentials in the system keyring",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var cfg model.PSAConfig
		required := func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("required")
			}
			return nil
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Client ID").
					Description("Integration client id sent with every request").
					Value(&cfg.ClientID).
					Validate(required),

				huh.NewInput().
					Title("Public key").
					Value(&cfg.PublicKey).
					Validate(required),

				huh.NewInput().
					Title("Private key").
					EchoMode(huh.EchoModePassword).
					Value(&cfg.PrivateKey).
					Validate(required),
			),
		)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
				return nil
			}
			return err
		}

		ring, err := credential.Open()
		if err != nil {
			return err
		}
		if err := ring.SavePSA(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Credentials saved to the keyring.")
		return nil
	},
}
