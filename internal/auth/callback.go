package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrLoginCancelled is returned when the login wait is aborted or times out.
var ErrLoginCancelled = errors.New("login cancelled")

// ProviderError is an error the identity provider reported on the redirect,
// such as access_denied when the user declines consent.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("microsoft login failed (%s): %s", e.Code, e.Description)
	}
	return fmt.Sprintf("microsoft login failed (%s)", e.Code)
}

// Is reports a declined consent as a cancelled login.
func (e *ProviderError) Is(target error) bool {
	return target == ErrLoginCancelled && e.Code == "access_denied"
}

const (
	callbackOK      = "You can now close this window."
	callbackFailed  = "Login was not completed. You can close this window."
	callbackInvalid = "Invalid request."
)

type callbackResult struct {
	code string
	err  error
}

// awaitCallback serves the redirect listener until a request with the
// expected state carries a code or a provider error. Other requests are
// refused and do not end the wait.
func (a *MicrosoftAuth) awaitCallback(ctx context.Context, listener net.Listener, state string) (string, error) {
	results := make(chan callbackResult, 1)

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			code, providerErr := query.Get("code"), query.Get("error")
			if (code == "" && providerErr == "") || query.Get("state") != state {
				a.logger.Warning("Auth", "rejected login callback", map[string]interface{}{
					"path":  r.URL.Path,
					"error": providerErr,
				})
				http.Error(w, callbackInvalid, http.StatusBadRequest)
				return
			}

			result := callbackResult{code: code}
			body := callbackOK
			if providerErr != "" {
				result = callbackResult{err: &ProviderError{
					Code:        providerErr,
					Description: query.Get("error_description"),
				}}
				body = callbackFailed
			}

			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(body))

			select {
			case results <- result:
			default:
			}
		}),
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Auth", err, nil)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", ErrLoginCancelled
	}
}
