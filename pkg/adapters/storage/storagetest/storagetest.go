// Package storagetest provides the behavioural test suite shared by all
// ports.SubmodelStore implementations.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aescanero/smrepo/pkg/domain/submodel"
	"github.com/aescanero/smrepo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) ports.SubmodelStore

// Run executes the store suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("EmptyGetAll", func(t *testing.T) {
		store := newStore(t)
		all, err := store.GetAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("CreateAndGet", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		sm := submodel.MustParse(`{"id":"newSubmodel","idShort":"New","submodelElements":[]}`)

		require.NoError(t, store.Create(ctx, sm))

		got, err := store.Get(ctx, "newSubmodel")
		require.NoError(t, err)
		assert.Equal(t, "newSubmodel", got.ID())
		assert.JSONEq(t, string(sm.Bytes()), string(got.Bytes()))
	})

	t.Run("CreateConflictKeepsExisting", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		original := submodel.MustParse(`{"id":"dup","idShort":"Original"}`)
		require.NoError(t, store.Create(ctx, original))

		err := store.Create(ctx, submodel.MustParse(`{"id":"dup","idShort":"Other"}`))
		assert.ErrorIs(t, err, submodel.ErrConflict)

		got, err := store.Get(ctx, "dup")
		require.NoError(t, err)
		assert.JSONEq(t, string(original.Bytes()), string(got.Bytes()))
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "nonExisting")
		assert.ErrorIs(t, err, submodel.ErrNotFound)
	})

	t.Run("UpdateReplaces", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Create(ctx, submodel.MustParse(`{"id":"7A7104BDAB57E184","idShort":"TechnicalData"}`)))

		updated := submodel.MustParse(`{"id":"7A7104BDAB57E184","idShort":"Updated","submodelElements":[]}`)
		require.NoError(t, store.Update(ctx, "7A7104BDAB57E184", updated))

		got, err := store.Get(ctx, "7A7104BDAB57E184")
		require.NoError(t, err)
		assert.JSONEq(t, string(updated.Bytes()), string(got.Bytes()))
	})

	t.Run("UpdateMissingCreatesNothing", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		err := store.Update(ctx, "nonExisting", submodel.MustParse(`{"id":"nonExisting"}`))
		assert.ErrorIs(t, err, submodel.ErrNotFound)

		_, err = store.Get(ctx, "nonExisting")
		assert.ErrorIs(t, err, submodel.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Create(ctx, submodel.MustParse(`{"id":"gone"}`)))

		require.NoError(t, store.Delete(ctx, "gone"))

		_, err := store.Get(ctx, "gone")
		assert.ErrorIs(t, err, submodel.ErrNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "gone"), submodel.ErrNotFound)
	})

	t.Run("GetAllOrderedByID", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, store.Create(ctx, submodel.MustParse(fmt.Sprintf(`{"id":%q}`, id))))
		}

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "a", all[0].ID())
		assert.Equal(t, "b", all[1].ID())
		assert.Equal(t, "c", all[2].ID())
	})

	t.Run("Count", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, store.Create(ctx, submodel.MustParse(fmt.Sprintf(`{"id":%q}`, id))))
		}
		require.NoError(t, store.Delete(ctx, "b"))

		n, err = store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("ConcurrentCreateSingleWinner", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- store.Create(ctx, submodel.MustParse(fmt.Sprintf(`{"id":"race","idShort":"w%d"}`, i)))
			}(i)
		}
		wg.Wait()
		close(errs)

		var ok, conflicts int
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, submodel.ErrConflict):
				conflicts++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, writers-1, conflicts)
	})

	t.Run("Ping", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Ping(context.Background()))
	})
}
