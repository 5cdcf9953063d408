package actorctx

import "context"

type ctxKey string

const accountIDKey ctxKey = "account_id"

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

func AccountIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountIDKey).(string)

	return v, ok && v != ""
}
