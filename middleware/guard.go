package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ledgerkeep/authkit"
)

type authResultContextKey struct{}

func AuthResultFromContext(ctx context.Context) (*authkit.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authkit.AuthResult)
	return res, ok
}

func Guard(engine *authkit.Engine, mode authkit.ValidationMode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Validate(r.Context(), token, mode)
			if err != nil {
				kind := authkit.Classify(err)
				http.Error(w, kind.String(), kind.HTTPStatus())
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLocal overrides the validation mode to [authkit.ModeLocal] for the
// wrapped handler, skipping Redis entirely.
func RequireLocal(engine *authkit.Engine) func(http.Handler) http.Handler {
	return Guard(engine, authkit.ModeLocal)
}

// RequireStrict overrides the validation mode to [authkit.ModeStrict],
// consulting the revocation records on every request.
func RequireStrict(engine *authkit.Engine) func(http.Handler) http.Handler {
	return Guard(engine, authkit.ModeStrict)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
