//go:build integration

package product_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MikeMC777/product-catalog/internal/category"
	"github.com/MikeMC777/product-catalog/internal/config"
	"github.com/MikeMC777/product-catalog/internal/database"
	"github.com/MikeMC777/product-catalog/internal/paging"
	"github.com/MikeMC777/product-catalog/internal/product"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("catalog"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	if err := database.RunMigrations(connStr, filepath.Join(findProjectRoot(t), "migrations")); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr, config.Pool{MaxConns: 4})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func seedCategory(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &category.Category{ID: uuid.New(), Name: "Peripherals-" + uuid.NewString()[:8], CreatedAt: now, UpdatedAt: now}
	if err := category.NewPGRepo(pool).Create(context.Background(), c); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c.ID
}

func newProduct(cat uuid.UUID, name string, at time.Time) *product.Product {
	return &product.Product{
		ID:         uuid.New(),
		CategoryID: cat,
		Name:       name,
		Price:      decimal.RequireFromString("10.50"),
		SKU:        uuid.NewString()[:12],
		WeightKg:   decimal.RequireFromString("1.250"),
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPGRepo_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	repo := product.NewPGRepo(pool)
	ctx := context.Background()
	cat := seedCategory(t, pool)

	p := newProduct(cat, "Trackball", time.Date(2025, 7, 1, 10, 0, 0, 123456000, time.UTC))
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Price.Equal(p.Price) || !got.WeightKg.Equal(p.WeightKg) || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, p)
	}

	dup := newProduct(cat, "Other", p.CreatedAt)
	dup.SKU = p.SKU
	if err := repo.Create(ctx, dup); !errors.Is(err, product.ErrDuplicateSKU) {
		t.Fatalf("expected ErrDuplicateSKU, got %v", err)
	}

	orphan := newProduct(uuid.New(), "Orphan", p.CreatedAt)
	if err := repo.Create(ctx, orphan); !errors.Is(err, product.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	free := newProduct(cat, "Freebie", p.CreatedAt)
	free.Price = decimal.Zero
	if err := repo.Create(ctx, free); !errors.Is(err, product.ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}

	tiny := newProduct(cat, "Sticker", p.CreatedAt)
	tiny.Price = decimal.RequireFromString("0.001")
	tiny.WeightKg = decimal.RequireFromString("0.0004")
	if err := repo.Create(ctx, tiny); err != nil {
		t.Fatalf("sub-cent price should be stored as given: %v", err)
	}
	if got, err := repo.GetByID(ctx, tiny.ID); err != nil || !got.Price.Equal(tiny.Price) || !got.WeightKg.Equal(tiny.WeightKg) {
		t.Fatalf("tiny round trip got=%+v err=%v", got, err)
	}

	got.Name = "Trackball Pro"
	got.UpdatedAt = got.UpdatedAt.Add(time.Minute)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := category.NewPGRepo(pool).Delete(ctx, cat); !errors.Is(err, category.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	ok, err := repo.Delete(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("delete ok=%v err=%v", ok, err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPGRepo_SearchWalk(t *testing.T) {
	pool := setupTestDB(t)
	repo := product.NewPGRepo(pool)
	ctx := context.Background()
	cat := seedCategory(t, pool)

	base := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("Phone %02d", i)
		if i%4 == 0 {
			name = fmt.Sprintf("Tablet %02d", i)
		}
		if err := repo.Create(ctx, newProduct(cat, name, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if err := repo.Create(ctx, newProduct(cat, "100% cotton", base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	engine := paging.NewEngine[product.Product](repo, func(p product.Product) time.Time { return p.CreatedAt }, quietLogger())

	var (
		cursor string
		walked []product.Product
	)
	for {
		page := engine.Search(ctx, paging.Filter{Query: "PHONE", PageSize: 4}, cursor)
		walked = append(walked, page.Items...)
		if !page.HasMore {
			break
		}
		cursor = *page.NextCursor
	}
	if len(walked) != 9 {
		t.Fatalf("walked %d phones, expected 9", len(walked))
	}
	for i := 1; i < len(walked); i++ {
		if !walked[i].CreatedAt.Before(walked[i-1].CreatedAt) {
			t.Fatalf("order broken at %d: %v !< %v", i, walked[i].CreatedAt, walked[i-1].CreatedAt)
		}
	}

	pct := engine.Search(ctx, paging.Filter{Query: "%", PageSize: 10}, "")
	if pct.Size != 1 || pct.Items[0].Name != "100% cotton" {
		t.Fatalf("literal %% search returned %+v", pct.Items)
	}

	all := engine.Search(ctx, paging.Filter{PageSize: 50}, "")
	if all.Size != 13 || all.HasMore {
		t.Fatalf("empty query: size=%d hasMore=%v", all.Size, all.HasMore)
	}
	if blank := engine.Search(ctx, paging.Filter{Query: "   ", PageSize: 50}, ""); blank.Size != 0 {
		t.Fatalf("blank query is a literal substring, got %d rows", blank.Size)
	}

	oldest := paging.EncodeCursor(base)
	if p := engine.Search(ctx, paging.Filter{PageSize: 5}, oldest); p.Size != 0 || p.HasMore {
		t.Fatalf("cursor at oldest row: %+v", p)
	}
}

func TestPGRepo_TiedTimestampsOrderByIDDesc(t *testing.T) {
	pool := setupTestDB(t)
	repo := product.NewPGRepo(pool)
	ctx := context.Background()
	cat := seedCategory(t, pool)

	older := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	tied := older.Add(time.Minute)
	var tiedIDs []string
	for i := 0; i < 5; i++ {
		p := newProduct(cat, fmt.Sprintf("Lamp %d", i), tied)
		if err := repo.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
		tiedIDs = append(tiedIDs, p.ID.String())
	}
	for i := 0; i < 2; i++ {
		if err := repo.Create(ctx, newProduct(cat, fmt.Sprintf("Old lamp %d", i), older)); err != nil {
			t.Fatal(err)
		}
	}
	// uuids compare bytewise, the same order as their lowercase hex text
	sort.Sort(sort.Reverse(sort.StringSlice(tiedIDs)))

	top, err := repo.FetchTop(ctx, "lamp", 5)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, 0, len(top))
	for _, p := range top {
		got = append(got, p.ID.String())
	}
	if !slices.Equal(got, tiedIDs) {
		t.Fatalf("tied rows order=%v, expected id DESC %v", got, tiedIDs)
	}

	engine := paging.NewEngine[product.Product](repo, func(p product.Product) time.Time { return p.CreatedAt }, quietLogger())
	first := engine.Search(ctx, paging.Filter{Query: "lamp", PageSize: 3}, "")
	if first.Size != 3 || !first.HasMore {
		t.Fatalf("first page: size=%d hasMore=%v", first.Size, first.HasMore)
	}
	second := engine.Search(ctx, paging.Filter{Query: "lamp", PageSize: 3}, *first.NextCursor)
	if second.Size != 2 || second.HasMore {
		t.Fatalf("second page: size=%d hasMore=%v", second.Size, second.HasMore)
	}
	for _, p := range second.Items {
		if !p.CreatedAt.Equal(older) {
			t.Fatalf("rows tied with the cursor must be skipped, got %s at %v", p.Name, p.CreatedAt)
		}
	}
}

func TestCachedRepo(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	addr, err := redisC.Endpoint(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	rc := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rc.Close() })

	repo := product.NewCachedRepo(product.NewPGRepo(pool), rc, time.Minute, quietLogger())
	p := newProduct(seedCategory(t, pool), "Monitor", time.Now().UTC().Truncate(time.Microsecond))
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.GetByID(ctx, p.ID); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if n, _ := rc.Exists(ctx, "product:"+p.ID.String()).Result(); n != 1 {
		t.Fatalf("expected cached entry after read")
	}

	p.Name = "Monitor 27"
	if err := repo.Update(ctx, p); err != nil {
		t.Fatal(err)
	}
	if n, _ := rc.Exists(ctx, "product:"+p.ID.String()).Result(); n != 0 {
		t.Fatalf("expected eviction after update")
	}
	got, err := repo.GetByID(ctx, p.ID)
	if err != nil || got.Name != "Monitor 27" {
		t.Fatalf("after update got=%+v err=%v", got, err)
	}
}
