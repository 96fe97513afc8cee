package audit

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_NewestFirst(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record(ctx, Entry{Action: ActionUpload, Resource: fmt.Sprintf("f%d", i), Success: true}))
	}

	got, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "f2", got[0].Resource)
	assert.Equal(t, "f0", got[2].Resource)
	for _, e := range got {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}

	got, err = s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryStore_Wraps(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		require.NoError(t, s.Record(ctx, Entry{Resource: fmt.Sprint(i)}))
	}

	got, err := s.Recent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"6", "5", "4"}, []string{got[0].Resource, got[1].Resource, got[2].Resource})
}

func TestMemoryStore_Empty(t *testing.T) {
	got, err := NewMemoryStore(0).Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = s.Record(context.Background(), Entry{Action: ActionList})
				_, _ = s.Recent(context.Background(), 5)
			}
		}()
	}
	wg.Wait()

	got, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}
