package contextkeys

import "context"

type (
	traceIDKeyType struct{}
	userIDKeyType  struct{}
)

// ContextWithTraceID помещает trace_id запроса в контекст.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKeyType{}, traceID)
}

// TraceIDFromContext - пустая строка, если trace_id не задан.
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKeyType{}).(string)
	return traceID
}

// ContextWithUserID помещает ID аутентифицированного пользователя в контекст.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKeyType{}, userID)
}

// UserIDFromContext - пустая строка, если пользователя нет.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKeyType{}).(string)
	return userID
}
