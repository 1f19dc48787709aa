package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// callbackServer receives the OAuth redirect on localhost and hands the
// authorization code back to the login flow.
type callbackServer struct {
	mu            sync.Mutex
	expectedState string
	codeChan      chan string
	errChan       chan error
	server        *http.Server
	listener      net.Listener
}

func newCallbackServer(expectedState string) *callbackServer {
	return &callbackServer{
		expectedState: expectedState,
		codeChan:      make(chan string, 1),
		errChan:       make(chan error, 1),
	}
}

// start listens on an ephemeral localhost port.
func (s *callbackServer) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("starting callback listener: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()
	return nil
}

func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		s.errChan <- fmt.Errorf("authorization refused: %s", errParam)
		fmt.Fprint(w, "Authorization failed. You can close this window.")
		return
	}
	if state := r.URL.Query().Get("state"); state != s.expectedState {
		s.errChan <- fmt.Errorf("state mismatch in authorization callback")
		fmt.Fprint(w, "Authorization failed. You can close this window.")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		s.errChan <- fmt.Errorf("no authorization code received")
		fmt.Fprint(w, "Authorization failed. You can close this window.")
		return
	}
	select {
	case s.codeChan <- code:
	default:
	}
	fmt.Fprint(w, "Authorization successful. You can close this window and return to the terminal.")
}

// redirectURI returns the URI the OAuth client must be configured with.
func (s *callbackServer) redirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", s.listener.Addr().(*net.TCPAddr).Port)
}

// waitForCode blocks until the code arrives, the provider reports an error
// or the timeout elapses.
func (s *callbackServer) waitForCode(timeout time.Duration) (string, error) {
	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-time.After(timeout):
		return "", fmt.Errorf("timed out waiting for the authorization callback")
	}
}

func (s *callbackServer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
}
