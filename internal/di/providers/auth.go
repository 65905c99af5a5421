package providers

import (
	"github.com/samber/do/v2"

	"github.com/recipebox/recipebox-server/internal/auth"
	"github.com/recipebox/recipebox-server/internal/config"
	"github.com/recipebox/recipebox-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey uses the configured key or loads/generates one on disk.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if len(cfg.Auth.TokenKey) > 0 {
		log.Info("Authentication key taken from configuration",
			"token_duration", cfg.Auth.TokenDuration,
		)
		return AuthKey(cfg.Auth.TokenKey), nil
	}

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.TokenKey = key

	log.Info("Authentication key loaded",
		"token_duration", cfg.Auth.TokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.TokenDuration)
}

// RevocationHandle wraps the revocation list with shutdown capability.
type RevocationHandle struct {
	*auth.RevocationList
}

// Shutdown implements do.Shutdownable.
func (h *RevocationHandle) Shutdown() error {
	return h.Close()
}

// ProvideRevocationList opens the badger store of logged-out tokens.
func ProvideRevocationList(i do.Injector) (*RevocationHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	list, err := auth.OpenRevocationList(cfg.Data.RevocationPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	return &RevocationHandle{RevocationList: list}, nil
}
