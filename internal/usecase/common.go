package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/roomcraft/roomcraft/internal/config"
)

func userIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(config.CTX_KEY_USER_ID).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: user id not found in context", ErrAuthorization)
	}
	return userID, nil
}
