package middleware

import (
	"context"
	"net/http"
	"strconv"
)

type contextKey string

// UserIDKey ключ контекста с идентификатором вызывающего пользователя
const UserIDKey contextKey = "userID"

// Auth проверяет заголовок X-User-ID и кладёт его значение в контекст
// Аутентификацию выполняет API-гейтвей; здесь только доверенный заголовок
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			http.Error(w, `{"code":401,"message":"missing X-User-ID header"}`, http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, `{"code":401,"message":"invalid X-User-ID header"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID возвращает идентификатор пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
