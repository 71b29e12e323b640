package utils

import (
	"context"

	"github.com/FinVerify/FV-Backend/internal/token"
)

type contextKey string

const ContextClaimsKey contextKey = "claims"

func GetClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextClaimsKey).(*token.Claims)
	return claims, ok
}
