package main

import (
	"net/http"
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeServer struct {
	err error
}

func (f fakeServer) Serve() error { return f.err }

func TestServeSignalsStopOnFailure(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantSignal bool
	}{
		{"listen failure", errors.New("listen tcp :80: bind: address already in use"), true},
		{"closed by shutdown", http.ErrServerClosed, false},
		{"wrapped close", errors.Wrap(http.ErrServerClosed, "serve"), false},
		{"clean return", nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stop := make(chan os.Signal, 1)
			serve(fakeServer{err: tc.err}, stop)

			select {
			case sig := <-stop:
				assert.True(t, tc.wantSignal, "unexpected signal %v", sig)
				assert.Equal(t, syscall.SIGTERM, sig)
			default:
				assert.False(t, tc.wantSignal, "expected a stop signal")
			}
		})
	}
}

func TestServeDoesNotBlockOnFullStop(t *testing.T) {
	stop := make(chan os.Signal, 1)
	stop <- os.Interrupt

	serve(fakeServer{err: errors.New("boom")}, stop)

	assert.Equal(t, os.Interrupt, <-stop)
}
