package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"plotline-service/internal/domain"
	pgstore "plotline-service/internal/infra/postgres"
	pgmigrations "plotline-service/internal/infra/postgres/migrations"
	infraredis "plotline-service/internal/infra/redis"
)

func TestProfileStoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateUsers(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewProfileStore(pool)

	avatar := "https://example.com/alice.png"
	first, err := store.GetOrCreate(ctx, domain.UserProfile{ExternalID: 1, Username: "alice", DisplayName: "Alice", AvatarURL: &avatar})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.HighScore != 0 || first.Username != "alice" {
		t.Fatalf("unexpected created profile %+v", first)
	}

	// First-write-wins: a second create with different fields reads the
	// original record.
	second, err := store.GetOrCreate(ctx, domain.UserProfile{ExternalID: 1, Username: "renamed", DisplayName: "Else"})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Username != "alice" || second.DisplayName != "Alice" {
		t.Fatalf("expected first-write-wins, got %+v", second)
	}
	if second.AvatarURL == nil || *second.AvatarURL != avatar {
		t.Fatalf("expected original avatar, got %v", second.AvatarURL)
	}

	if err := store.RaiseHighScore(ctx, 1, 10); err != nil {
		t.Fatalf("raise: %v", err)
	}
	if err := store.RaiseHighScore(ctx, 1, 7); err != nil {
		t.Fatalf("raise lower: %v", err)
	}
	profile, err := store.GetOrCreate(ctx, domain.UserProfile{ExternalID: 1, Username: "x", DisplayName: "x"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if profile.HighScore != 10 {
		t.Fatalf("lower raise must not win, got %d", profile.HighScore)
	}

	// Raising an unknown profile is a silent no-op.
	if err := store.RaiseHighScore(ctx, 999, 50); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestConcurrentRaisesConvergeToMax(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, cleanup := startPostgres(t, ctx)
	defer cleanup()
	migrateUsers(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewProfileStore(pool)
	if _, err := store.GetOrCreate(ctx, domain.UserProfile{ExternalID: 1, Username: "alice", DisplayName: "Alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for _, score := range []int{5, 20, 12} {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			if err := store.RaiseHighScore(ctx, 1, score); err != nil {
				t.Errorf("raise %d: %v", score, err)
			}
		}(score)
	}
	wg.Wait()

	profile, err := store.GetOrCreate(ctx, domain.UserProfile{ExternalID: 1, Username: "x", DisplayName: "x"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if profile.HighScore != 20 {
		t.Fatalf("expected convergence to 20, got %d", profile.HighScore)
	}
}

func TestLeaderboardCapAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, cleanup := startPostgres(t, ctx)
	defer cleanup()
	migrateUsers(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewProfileStore(pool)
	for i := 1; i <= 60; i++ {
		id := int64(i)
		if _, err := store.GetOrCreate(ctx, domain.UserProfile{ExternalID: id, Username: fmt.Sprintf("u%d", i), DisplayName: "Player"}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if err := store.RaiseHighScore(ctx, id, i); err != nil {
			t.Fatalf("raise %d: %v", i, err)
		}
	}
	// One profile that never scored; must not appear.
	if _, err := store.GetOrCreate(ctx, domain.UserProfile{ExternalID: 1000, Username: "idle", DisplayName: "Idle"}); err != nil {
		t.Fatalf("create idle: %v", err)
	}

	entries, err := store.Leaderboard(ctx, 50)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.HighScore == 0 {
			t.Fatalf("zero score leaked: %+v", e)
		}
		if i > 0 && entries[i-1].HighScore < e.HighScore {
			t.Fatalf("order violated at %d", i)
		}
	}
	if entries[49].HighScore != 11 {
		t.Fatalf("expected cutoff at 11, got %d", entries[49].HighScore)
	}
}

func TestLeaderboardCacheAgainstRealBackends(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateUsers(t, ctx, pgURL)
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	store := infraredis.NewLeaderboardCache(redisClient, pgstore.NewProfileStore(pool), 5*time.Minute)

	if _, err := store.GetOrCreate(ctx, domain.UserProfile{ExternalID: 1, Username: "alice", DisplayName: "Alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.RaiseHighScore(ctx, 1, 3); err != nil {
		t.Fatalf("raise: %v", err)
	}

	entries, err := store.Leaderboard(ctx, 50)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].HighScore != 3 {
		t.Fatalf("unexpected snapshot %+v", entries)
	}

	// Raise through the cache; the next read must see the new value, not a
	// stale cached snapshot.
	if err := store.RaiseHighScore(ctx, 1, 9); err != nil {
		t.Fatalf("raise 9: %v", err)
	}
	entries, err = store.Leaderboard(ctx, 50)
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(entries) != 1 || entries[0].HighScore != 9 {
		t.Fatalf("expected fresh snapshot at 9, got %+v", entries)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "plotline", "POSTGRES_PASSWORD": "plotlinepass", "POSTGRES_DB": "plotlinedb"},
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
	dsn := fmt.Sprintf("postgres://plotline:plotlinepass@%s:%s/plotlinedb?sslmode=disable", host, port.Port())
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

func migrateUsers(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
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
