package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"emperor/internal/action"
	"emperor/internal/chain"
	"emperor/internal/config"

	"github.com/bwmarrin/discordgo"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type announcer struct {
	session   *discordgo.Session
	channelID string
}

func newAnnouncer(token, channelID string) (*announcer, error) {
	if token == "" || channelID == "" {
		return nil, nil
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &announcer{session: session, channelID: channelID}, nil
}

func (a *announcer) Announce(msg string) error {
	_, err := a.session.ChannelMessageSend(a.channelID, msg)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		logger.Error("invalid program id", "program_id", cfg.ProgramID, "err", err)
		os.Exit(1)
	}

	chainSvc := chain.NewService(rpc.New(cfg.RPCURL), programID, logger)

	discord, err := newAnnouncer(cfg.DiscordToken, cfg.DiscordChannelID)
	if err != nil {
		logger.Error("discord announcer init failed", "err", err)
		os.Exit(1)
	}

	var lastEmperor solana.PublicKey
	tick := func() {
		tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		state, err := chainSvc.FetchGameState(tickCtx)
		if err != nil {
			if errors.Is(err, chain.ErrGameUninitialized) {
				logger.Info("game not initialized yet")
				return
			}
			logger.Error("state poll failed", "err", err)
			return
		}
		if state.CurrentEmperor.Equals(lastEmperor) {
			return
		}

		pricing := action.Translate(state)
		msg := fmt.Sprintf("A new emperor has claimed the throne: %s with %.2f SOL. Next bid: %.3f SOL.",
			state.CurrentEmperor, float64(state.CurrentBid)/action.LamportsPerSOL, pricing.NextBidSOL)
		logger.Info("emperor changed",
			"emperor", state.CurrentEmperor,
			"previous", lastEmperor,
			"current_bid_lamports", state.CurrentBid,
		)
		if discord != nil {
			if err := discord.Announce(msg); err != nil {
				logger.Error("discord announce failed", "err", err)
			}
		}
		lastEmperor = state.CurrentEmperor
	}

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("EMPEROR_WATCHER_RUN_ONCE")), "true")
	if runOnce {
		tick()
		logger.Info("watcher run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.PollEvery)
	defer ticker.Stop()

	logger.Info("watcher started", "poll_every", cfg.PollEvery.String(), "program", programID)
	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher shutdown")
			return
		case <-ticker.C:
			tick()
		}
	}
}
