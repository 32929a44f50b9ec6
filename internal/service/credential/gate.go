package credential

import (
	"context"

	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/internal/infra/logger"
	"github.com/Jason-Beltran/VisuContenido-Carruseles-1/pkg/errors"
)

// Prompter asks the user to connect a key. Best effort; headless hosts
// have none.
type Prompter interface {
	PromptForCredential(ctx context.Context) error
}

// Gate is the single place that answers "is a usable key available".
type Gate struct {
	chain    Chain
	store    *SQLiteStore
	prompter Prompter
	logger   *logger.Logger
}

func NewGate(chain Chain, store *SQLiteStore, prompter Prompter, log *logger.Logger) *Gate {
	return &Gate{
		chain:    chain,
		store:    store,
		prompter: prompter,
		logger:   log,
	}
}

// Key returns the first available key or a credential error.
func (g *Gate) Key(ctx context.Context) (string, error) {
	key, source, err := g.chain.Resolve(ctx)
	if err != nil {
		g.logger.Warn("credential provider failed", "error", err)
	}
	if key == "" {
		return "", errors.Credential("no API key available", err)
	}
	g.logger.Debug("credential resolved", "source", source)
	return key, nil
}

func (g *Gate) IsAvailable(ctx context.Context) bool {
	_, err := g.Key(ctx)
	return err == nil
}

// Ready is the readiness check run before a generation. It has no side
// effects and may be called any number of times.
func (g *Gate) Ready(ctx context.Context) error {
	_, err := g.Key(ctx)
	return err
}

func (g *Gate) Prompt(ctx context.Context) {
	if g.prompter == nil {
		g.logger.Info("credential required; no interactive prompt available")
		return
	}
	if err := g.prompter.PromptForCredential(ctx); err != nil {
		g.logger.Warn("credential prompt failed", "error", err)
	}
}

// Connect persists a key supplied by the user.
func (g *Gate) Connect(ctx context.Context, key string) error {
	if g.store == nil {
		return errors.New(errors.ErrCodeInternal, "credential persistence is disabled")
	}
	if key == "" {
		return errors.New(errors.ErrCodeInvalidReq, "api key is empty")
	}
	if err := g.store.SetAPIKey(ctx, key); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to persist api key")
	}
	g.logger.Info("api key connected")
	return nil
}

func (g *Gate) Disconnect(ctx context.Context) error {
	if g.store == nil {
		return nil
	}
	if err := g.store.ClearAPIKey(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to clear api key")
	}
	return nil
}
