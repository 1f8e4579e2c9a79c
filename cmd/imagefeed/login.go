package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/unsplash"
	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/websurface"
	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
	"github.com/imagefeed/imagefeed-core/internal/core/services"
)

func newLoginCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Run the authorization flow and print the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.validated()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			req, err := domain.NewAuthorizationRequest(cfg.AuthorizeURL, cfg.AccessKey, cfg.RedirectURI, cfg.Scopes())
			if err != nil {
				return err
			}

			flowID := uuid.NewString()
			log := a.logger.With("flow_id", flowID)

			login := services.NewLoginService(services.LoginServiceConfig{
				Exchanger: unsplash.NewTokenExchanger(unsplash.TokenExchangerConfig{
					ClientID:     cfg.AccessKey,
					ClientSecret: cfg.SecretKey,
					RedirectURI:  cfg.RedirectURI,
					Scopes:       cfg.Scopes(),
					AuthorizeURL: cfg.AuthorizeURL,
					TokenURL:     cfg.TokenURL,
					Logger:       log,
				}),
				Logger: log,
			})

			flow := services.NewAuthorizationFlow(services.AuthorizationFlowConfig{
				ID:        flowID,
				Request:   req,
				Surface:   websurface.NewHTTPSurface(websurface.Config{Logger: log}),
				Listener:  login,
				Presenter: &progressPresenter{logger: log},
				Logger:    log,
			})
			defer flow.Close()

			token, err := login.Login(ctx, flow)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			return writeToken(cmd.OutOrStdout(), token)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up waiting for authorization after this long (0 waits forever)")
	return cmd
}

func writeToken(w io.Writer, token *domain.OAuthToken) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(token)
}

// progressPresenter reports page load progress to the log.
type progressPresenter struct {
	logger *slog.Logger
}

var _ driven.ProgressPresenter = (*progressPresenter)(nil)

func (p *progressPresenter) PresentProgress(lp domain.LoadProgress) {
	if lp.Hidden {
		p.logger.Debug("authorization page loaded")
		return
	}
	p.logger.Debug("loading authorization page", "progress", fmt.Sprintf("%.0f%%", lp.Value*100))
}
