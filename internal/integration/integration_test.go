package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"crocodile-service/internal/app"
	"crocodile-service/internal/cli"
	"crocodile-service/internal/domain"
	pgstore "crocodile-service/internal/infra/postgres"
	infraredis "crocodile-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const chatID = int64(-100777)

func TestRoundWinEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if err := cli.RunMigrations(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	seedWords(t, ctx, pgURL, "маяк")

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	stats := pgstore.NewStatsRepository(pool)
	words := infraredis.NewWordSource(redisClient, pgstore.NewWordLoader(pool), 5*time.Minute)
	games := infraredis.NewGameRegistry(redisClient, 5*time.Minute)
	bus := app.NewBroadcaster(16)
	service := app.NewRoundService(games, words, stats, bus, app.DefaultRoundConfig())
	defer func() { _, _ = service.ForceStop(ctx, chatID, 0) }()

	if err := service.RegisterPlayer(ctx, chatID, 2, "bob"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.StartRound(ctx, chatID, 1); err != nil {
		t.Fatalf("start round: %v", err)
	}
	word, err := service.RevealWord(chatID, 1)
	if err != nil || word != "маяк" {
		t.Fatalf("expected seeded word, got %q err=%v", word, err)
	}
	if !service.RecordLeaderMessage(chatID, 1, "светит кораблям ночью") {
		t.Fatalf("expected leader message to open guessing")
	}

	ev, err := service.RecordGuessAttempt(ctx, chatID, 2, "маяк")
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if ev == nil || ev.Type != domain.EventWin || ev.Win.WinnerID != 2 {
		t.Fatalf("expected win for player 2, got %+v", ev)
	}

	winner, err := stats.Load(ctx, chatID, 2)
	if err != nil {
		t.Fatalf("load winner: %v", err)
	}
	if winner.Username != "bob" || winner.WordsGuessed != 1 || winner.Experience != ev.Win.GuessExperience {
		t.Fatalf("unexpected winner stats: %+v", winner)
	}
	leader, err := stats.Load(ctx, chatID, 1)
	if err != nil {
		t.Fatalf("load leader: %v", err)
	}
	if leader.WordsExplained != 1 {
		t.Fatalf("expected leader to have one explained word, got %+v", leader)
	}

	top, err := service.Leaderboard(ctx, chatID, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 2 || top[0].PlayerID != 2 {
		t.Fatalf("expected winner on top, got %+v", top)
	}

	snap, ok := service.Snapshot(chatID)
	if !ok || !snap.Active || snap.LeaderID != 2 {
		t.Fatalf("expected winner to lead the next round, got %+v", snap)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "croc", "POSTGRES_PASSWORD": "crocpass", "POSTGRES_DB": "crocdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://croc:crocpass@%s:%s/crocdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedWords replaces the migrated vocabulary so the drawn word is predictable.
func seedWords(t *testing.T, ctx context.Context, dsn string, words ...string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	if _, err := db.ExecContext(ctx, `DELETE FROM words`); err != nil {
		t.Fatalf("clear words: %v", err)
	}
	for _, w := range words {
		if _, err := db.ExecContext(ctx, `INSERT INTO words (word) VALUES (?)`, w); err != nil {
			t.Fatalf("insert word: %v", err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
