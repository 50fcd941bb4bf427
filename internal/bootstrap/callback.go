package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const callbackPath = "/oauth/callback"

// CallbackServer captures the authorization redirect on a loopback
// listener, for setups where the RuName points at localhost.
type CallbackServer struct {
	echo     *echo.Echo
	listener net.Listener
	results  chan callbackResult
}

type callbackResult struct {
	code  string
	state string
	err   string
}

// NewCallbackServer binds a loopback listener on addr (e.g. "127.0.0.1:0").
func NewCallbackServer(addr string) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding callback listener: %w", err)
	}

	s := &CallbackServer{
		echo:    echo.New(),
		results: make(chan callbackResult, 1),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.listener = listener
	s.echo.Listener = listener
	s.echo.GET(callbackPath, s.handle)

	go func() {
		_ = s.echo.Start("")
	}()
	return s, nil
}

// URL returns the redirect URL the flow should use.
func (s *CallbackServer) URL() string {
	return "http://" + s.listener.Addr().String() + callbackPath
}

// Wait blocks until the browser hits the callback, the timeout elapses, or
// ctx is canceled, and returns the authorization code after verifying the
// state nonce.
func (s *CallbackServer) Wait(ctx context.Context, state string, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-s.results:
		if result.err != "" {
			return "", fmt.Errorf("authorization failed: %s", result.err)
		}
		if result.state != state {
			return "", fmt.Errorf("state mismatch on callback")
		}
		if result.code == "" {
			return "", fmt.Errorf("callback carried no authorization code")
		}
		return result.code, nil
	case <-timer.C:
		return "", fmt.Errorf("timed out waiting for authorization callback")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close shuts the listener down.
func (s *CallbackServer) Close(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *CallbackServer) handle(c echo.Context) error {
	result := callbackResult{
		code:  c.QueryParam("code"),
		state: c.QueryParam("state"),
		err:   c.QueryParam("error"),
	}

	select {
	case s.results <- result:
	default:
	}

	if result.code != "" {
		return c.HTML(http.StatusOK,
			"<html><body><h1>Authorization complete</h1><p>You can close this page.</p></body></html>")
	}
	return c.HTML(http.StatusBadRequest,
		"<html><body><h1>Authorization failed</h1><p>Return to the terminal.</p></body></html>")
}
