package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"crocodile-service/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStatsRepositoryLoadDefaults(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewStatsRepository(client)

	got, err := repo.Load(context.Background(), -100, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(domain.DefaultPlayerStats(-100, 7), got); diff != "" {
		t.Fatalf("default stats mismatch (-want +got):\n%s", diff)
	}
}

func TestStatsRepositoryRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewStatsRepository(client)
	ctx := context.Background()

	st := domain.DefaultPlayerStats(-100, 7)
	st.Username = "alice"
	st.RecordGuess(8*time.Second, 3)
	st.RecordExplain(40 * time.Second)
	st.Experience = 170
	st.Level = 2
	st.Rating = 1005
	st.ViolationCount = 1

	if err := repo.Save(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("stats:-100:7") {
		t.Fatalf("expected stats hash to be written")
	}
	if ok, _ := mr.SIsMember("stats:-100:players", "7"); !ok {
		t.Fatalf("expected player to be indexed")
	}

	got, err := repo.Load(ctx, -100, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(st, got); diff != "" {
		t.Fatalf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestStatsRepositoryListChat(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewStatsRepository(client)
	ctx := context.Background()

	for _, id := range []int64{9, 3, 5} {
		st := domain.DefaultPlayerStats(-1, id)
		st.Experience = int(id) * 10
		if err := repo.Save(ctx, st); err != nil {
			t.Fatalf("save %d: %v", id, err)
		}
	}
	other := domain.DefaultPlayerStats(-2, 4)
	if err := repo.Save(ctx, other); err != nil {
		t.Fatalf("save other chat: %v", err)
	}

	list, err := repo.ListChat(ctx, -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []int64
	for _, st := range list {
		ids = append(ids, st.PlayerID)
	}
	if diff := cmp.Diff([]int64{3, 5, 9}, ids); diff != "" {
		t.Fatalf("player ids mismatch (-want +got):\n%s", diff)
	}
	if list[2].Experience != 90 {
		t.Fatalf("expected experience 90, got %d", list[2].Experience)
	}

	empty, err := repo.ListChat(ctx, -3)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no players, got %d", len(empty))
	}
}
