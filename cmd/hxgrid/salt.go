package main

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/hxgrid"
	"github.com/pthm/hxgrid/lib/salt"
)

func newSaltCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "salt",
		Short: "Manage the export salt",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "generate",
			Short: "Print a new random salt for HXGRID_EXPORT_SALT",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := salt.Generate()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(s))
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the salt shared through HXGRID_REDIS_URL, creating it if needed",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := hxgrid.LoadConfig(opts.envFiles...)
				if err != nil {
					return err
				}
				if cfg.RedisURL == "" {
					return errors.New("HXGRID_REDIS_URL is not set")
				}
				client, err := salt.Connect(cmd.Context(), cfg.RedisURL)
				if err != nil {
					return err
				}
				defer client.Close()

				s, err := salt.NewRedis(client, salt.DefaultKey).Salt(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(s))
				return nil
			},
		},
	)
	return cmd
}
