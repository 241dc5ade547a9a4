package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sage-backend/application/ports"
)

func record(table, key, communityID string) ports.Record {
	return ports.Record{
		Table:       table,
		Key:         key,
		CommunityID: communityID,
		Payload:     []byte(`{"v":1}`),
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, record(ports.TableMoodSnapshots, "guild-1/1", "guild-1")))

	got, err := store.Get(ctx, ports.TableMoodSnapshots, "guild-1/1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "guild-1", got.CommunityID)

	// Overwrite replaces in place
	updated := record(ports.TableMoodSnapshots, "guild-1/1", "guild-1")
	updated.Payload = []byte(`{"v":2}`)
	require.NoError(t, store.Set(ctx, updated))

	got, err = store.Get(ctx, ports.TableMoodSnapshots, "guild-1/1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got.Payload))
	assert.Equal(t, 1, store.Len())
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := NewRecordStore()

	got, err := store.Get(context.Background(), ports.TablePredictions, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, record(ports.TablePredictions, "guild-1/p1", "guild-1")))
	require.NoError(t, store.Delete(ctx, ports.TablePredictions, "guild-1/p1"))

	got, err := store.Get(ctx, ports.TablePredictions, "guild-1/p1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting an absent record is not an error
	assert.NoError(t, store.Delete(ctx, ports.TablePredictions, "guild-1/p1"))
}

func TestQueryByCommunityFiltersAndSorts(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, record(ports.TableMemoryFragments, "guild-1/b", "guild-1")))
	require.NoError(t, store.Set(ctx, record(ports.TableMemoryFragments, "guild-1/a", "guild-1")))
	require.NoError(t, store.Set(ctx, record(ports.TableMemoryFragments, "guild-2/c", "guild-2")))
	require.NoError(t, store.Set(ctx, record(ports.TablePredictions, "guild-1/z", "guild-1")))

	records, err := store.QueryByCommunity(ctx, ports.TableMemoryFragments, "guild-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "guild-1/a", records[0].Key)
	assert.Equal(t, "guild-1/b", records[1].Key)
}
