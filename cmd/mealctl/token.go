package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/mealdash-backend/pkg/auth"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

type mintedToken struct {
	Token     string    `json:"token"`
	ActorID   uuid.UUID `json:"actor_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newTokenCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access token helpers for local development",
	}
	cmd.AddCommand(newTokenMintCommand(env))
	return cmd
}

func newTokenMintCommand(env *environment) *cobra.Command {
	var (
		actor string
		role  string
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a signed access token for an actor and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedRole, err := enums.ParseRole(role)
			if err != nil {
				return err
			}
			actorID, err := uuid.Parse(actor)
			if err != nil {
				return fmt.Errorf("invalid --actor: %w", err)
			}
			cfg, _, err := env.config()
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			token, err := auth.MintAccessToken(cfg.JWT, now, auth.AccessTokenPayload{ActorID: actorID, Role: parsedRole})
			if err != nil {
				return err
			}
			out := mintedToken{
				Token:     token,
				ActorID:   actorID,
				Role:      parsedRole.String(),
				ExpiresAt: now.Add(time.Duration(cfg.JWT.ExpirationMinutes) * time.Minute),
			}
			return env.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, out.Token)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "actor id (uuid)")
	cmd.Flags().StringVar(&role, "role", string(enums.RoleUser), "user|vendor|delivery_partner|admin")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}
