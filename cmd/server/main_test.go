package main

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServeWaitsForShutdownSequence(t *testing.T) {
	shutdownDone := make(chan struct{})
	var flushed atomic.Bool

	returned := make(chan error, 1)
	go func() { returned <- serve(func() error { return nil }, shutdownDone) }()

	select {
	case <-returned:
		t.Fatal("serve returned before shutdown finished")
	case <-time.After(20 * time.Millisecond):
	}

	flushed.Store(true)
	close(shutdownDone)

	select {
	case err := <-returned:
		assert.NoError(t, err)
		assert.True(t, flushed.Load())
	case <-time.After(time.Second):
		t.Fatal("serve did not return after shutdown")
	}
}

func TestServeReturnsStartError(t *testing.T) {
	boom := errors.New("address already in use")
	err := serve(func() error { return boom }, make(chan struct{}))
	assert.ErrorIs(t, err, boom)
}
