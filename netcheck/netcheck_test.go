package netcheck

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type faults struct {
	seen []bool
}

func (f *faults) set(on bool) { f.seen = append(f.seen, on) }

func TestWaitLinkSucceedsAfterRetry(t *testing.T) {
	calls := 0
	f := &faults{}
	err := WaitLink(context.Background(), Options{
		Attempts:   3,
		RetryDelay: time.Millisecond,
		Check: func(string) error {
			calls++
			if calls < 2 {
				return errors.New("no carrier")
			}
			return nil
		},
		Fault: f.set,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []bool{true, false}, f.seen)
}

func TestWaitLinkBounded(t *testing.T) {
	calls := 0
	f := &faults{}
	err := WaitLink(context.Background(), Options{
		Attempts:   3,
		RetryDelay: time.Millisecond,
		Check:      func(string) error { calls++; return errors.New("no carrier") },
		Fault:      f.set,
	})
	assert.ErrorIs(t, err, ErrLinkDown)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []bool{true}, f.seen)
}

func TestWaitLinkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitLink(ctx, Options{
		Attempts:   5,
		RetryDelay: time.Hour,
		Check:      func(string) error { return errors.New("no carrier") },
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			c.Close()
		}
	}()

	_, err = Probe(context.Background(), ln.Addr().String(), time.Second)
	assert.NoError(t, err)
}
