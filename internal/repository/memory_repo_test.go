package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"usermgr/internal/models"
	"usermgr/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySaveAssignsSequentialIDs(t *testing.T) {
	repo := NewMemoryUserRepository()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	first, err := repo.Save(context.Background(), &models.User{FullName: "Ana"})
	require.NoError(t, err)
	second, err := repo.Save(context.Background(), &models.User{FullName: "Bruno"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, fixed, first.CreatedAt)
}

func TestMemorySaveOverwritesByID(t *testing.T) {
	repo := NewMemoryUserRepository()
	created, err := repo.Save(context.Background(), &models.User{FullName: "Ana"})
	require.NoError(t, err)

	created.FullName = "Ana G."
	_, err = repo.Save(context.Background(), created)
	require.NoError(t, err)

	got, found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ana G.", got.FullName)
	assert.Equal(t, 1, repo.Len())
}

func TestMemoryWritesToMissingIDAreNotFound(t *testing.T) {
	repo := NewMemoryUserRepository()

	_, err := repo.Save(context.Background(), &models.User{ID: 10, FullName: "Ghost"})
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	err = repo.Delete(context.Background(), &models.User{ID: 10})
	var nf *services.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(10), nf.ID)

	assert.Equal(t, 0, repo.Len())
}

func TestMemoryDeletedUserIsNotWrittenBack(t *testing.T) {
	repo := NewMemoryUserRepository()
	created, err := repo.Save(context.Background(), &models.User{FullName: "Ana"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), created))

	created.FullName = "Ana G."
	_, err = repo.Save(context.Background(), created)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	assert.Equal(t, 0, repo.Len())
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	created, err := repo.Save(context.Background(), &models.User{FullName: "Ana"})
	require.NoError(t, err)

	created.FullName = "mutated"
	got, _, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FullName)

	got.FullName = "mutated again"
	again, _, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", again.FullName)
}

func TestMemoryFindAllOrderedByID(t *testing.T) {
	repo := NewMemoryUserRepository()
	for i := 0; i < 5; i++ {
		_, err := repo.Save(context.Background(), &models.User{FullName: "u"})
		require.NoError(t, err)
	}
	require.NoError(t, repo.Delete(context.Background(), &models.User{ID: 3}))

	users, err := repo.FindAll(context.Background())
	require.NoError(t, err)

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []int64{1, 2, 4, 5}, ids)
}

func TestMemoryDelete(t *testing.T) {
	repo := NewMemoryUserRepository()
	created, err := repo.Save(context.Background(), &models.User{FullName: "Ana"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), created))

	_, found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryConcurrentSaves(t *testing.T) {
	repo := NewMemoryUserRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Save(context.Background(), &models.User{FullName: "u"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	users, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 50)
	assert.Equal(t, int64(50), users[len(users)-1].ID)
}
