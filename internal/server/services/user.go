package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/auth"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
)

const msgUnauthorized = "Authentication required"

// UserService resolves the caller of an API request from its access token.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	jwtSecret   []byte
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		logger:      l.With("service", "users"),
		jwtSecret:   []byte(cfg.SecretKey),
	}
}

// Authenticate verifies the access token and returns the enabled user it
// was issued for. Every failure is common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "error", err)
		return nil, common.NewUserError(common.ErrorUnauthorized, msgUnauthorized)
	}
	userID, ok := canonicalID(userID)
	if !ok {
		return nil, common.NewUserError(common.ErrorUnauthorized, msgUnauthorized)
	}

	user, err := s.repomanager.Users(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewUserError(common.ErrorUnauthorized, msgUnauthorized)
		}
		return nil, err
	}
	if !user.IsEnabled {
		s.logger.Info(ctx, "disabled user rejected", "user_id", user.ID)
		return nil, common.NewUserError(common.ErrorUnauthorized, msgUnauthorized)
	}
	return user, nil
}
