package delivery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionalLoader() *stubLoader {
	return &stubLoader{load: func(_ context.Context, path string) (Set, error) {
		switch path {
		case "north.gz":
			return setOf("110001", "122001"), nil
		case "south.gz":
			return setOf("560001", "600001", "110001"), nil
		}
		return nil, errors.New("no such file")
	}}
}

func TestDirectory_Serviceable(t *testing.T) {
	dir, err := NewDirectory(context.Background(), []string{"north.gz", "south.gz"}, regionalLoader(), zerolog.Nop())
	require.NoError(t, err)

	tests := []struct {
		pincode string
		want    bool
	}{
		{"110001", true},
		{"600001", true},
		{"122001", true},
		{"400001", false},
		{"11000", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dir.Serviceable(tt.pincode), tt.pincode)
	}
	assert.Equal(t, 5, dir.Size())
}

func TestDirectory_LoadFailure(t *testing.T) {
	_, err := NewDirectory(context.Background(), []string{"north.gz", "west.gz"}, regionalLoader(), zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "west.gz")
}

func TestDirectory_ReloadKeepsPreviousOnFailure(t *testing.T) {
	var fail atomic.Bool
	loader := &stubLoader{load: func(context.Context, string) (Set, error) {
		if fail.Load() {
			return nil, errors.New("bucket unavailable")
		}
		return setOf("560001"), nil
	}}
	dir, err := NewDirectory(context.Background(), []string{"south.gz"}, loader, zerolog.Nop())
	require.NoError(t, err)

	fail.Store(true)
	require.Error(t, dir.Reload(context.Background()))

	assert.True(t, dir.Serviceable("560001"))
}

func TestDirectory_RunReloadsUntilCancelled(t *testing.T) {
	var loads atomic.Int32
	loader := &stubLoader{load: func(context.Context, string) (Set, error) {
		if loads.Add(1) > 1 {
			return setOf("560001", "400001"), nil
		}
		return setOf("560001"), nil
	}}
	dir, err := NewDirectory(context.Background(), []string{"south.gz"}, loader, zerolog.Nop())
	require.NoError(t, err)
	require.False(t, dir.Serviceable("400001"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dir.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return dir.Serviceable("400001") }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
