package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Amenities().Add(ctx, newAmenity(t, "WiFi"))
	require.NoError(t, err)
	a.Name = "mutated"

	got, _, err := s.Amenities().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "WiFi", got.Name)
}

func TestMemoryStore_GetAllKeepsInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var want []string
	for i := 0; i < 5; i++ {
		a, err := s.Amenities().Add(ctx, newAmenity(t, fmt.Sprintf("amenity-%d", i)))
		require.NoError(t, err)
		want = append(want, a.ID)
	}
	_, err := s.Amenities().Delete(ctx, want[1])
	require.NoError(t, err)
	want = append(want[:1], want[2:]...)

	all, err := s.Amenities().GetAll(ctx)
	require.NoError(t, err)
	got := make([]string, 0, len(all))
	for _, a := range all {
		got = append(got, a.ID)
	}
	assert.Equal(t, want, got)
}

func TestMemoryStore_AddRejectsExistingID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Amenities().Add(ctx, newAmenity(t, "WiFi"))
	require.NoError(t, err)

	dup := newAmenity(t, "Pool")
	dup.ID = a.ID
	_, err = s.Amenities().Add(ctx, dup)
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	owner, err := s.Users().Add(ctx, newUser(t, "owner@example.com"))
	require.NoError(t, err)
	places := make([]string, 4)
	for i := range places {
		p, err := s.Places().Add(ctx, newPlace(t, owner.ID))
		require.NoError(t, err)
		places[i] = p.ID
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := places[i%len(places)]
			_, _, err := s.Places().Update(ctx, id, map[string]any{"price_per_night": float64(i)})
			assert.NoError(t, err)
			_, _, err = s.Places().Get(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := s.Places().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(places))
}

func TestMemoryStore_PlaceDeleteDropsLinks(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	owner, err := s.Users().Add(ctx, newUser(t, "owner@example.com"))
	require.NoError(t, err)
	wifi, err := s.Amenities().Add(ctx, newAmenity(t, "WiFi"))
	require.NoError(t, err)
	place, err := s.Places().Add(ctx, newPlace(t, owner.ID))
	require.NoError(t, err)
	_, err = s.Places().AddAmenity(ctx, place.ID, wifi.ID)
	require.NoError(t, err)

	_, err = s.Places().Delete(ctx, place.ID)
	require.NoError(t, err)
	assert.NotContains(t, s.state.links, place.ID)
}

func TestMemoryStore_KeysDoNotAliasArguments(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	owner, err := s.Users().Add(ctx, newUser(t, "owner@example.com"))
	require.NoError(t, err)
	wifi, err := s.Amenities().Add(ctx, newAmenity(t, "WiFi"))
	require.NoError(t, err)
	place, err := s.Places().Add(ctx, newPlace(t, owner.ID))
	require.NoError(t, err)

	// Request routers hand out ids backed by a reused buffer.
	placeBuf, wifiBuf := []byte(place.ID), []byte(wifi.ID)
	_, err = s.Places().AddAmenity(ctx, unsafe.String(&placeBuf[0], len(placeBuf)), unsafe.String(&wifiBuf[0], len(wifiBuf)))
	require.NoError(t, err)
	clear(placeBuf)
	clear(wifiBuf)

	got, found, err := s.Places().Get(ctx, place.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{wifi.ID}, got.AmenityIDs())

	idBuf := []byte(wifi.ID)
	_, found, err = s.Amenities().Update(ctx, unsafe.String(&idBuf[0], len(idBuf)), map[string]any{"name": "Fast WiFi"})
	require.NoError(t, err)
	require.True(t, found)
	clear(idBuf)

	a, found, err := s.Amenities().Get(ctx, wifi.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Fast WiFi", a.Name)
}
