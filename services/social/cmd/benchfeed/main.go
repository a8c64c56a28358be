package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"chronofeed/pkg/config"
	"chronofeed/pkg/logger"
	socialApp "chronofeed/services/social/internal/app"
	"chronofeed/services/social/internal/repo/persistent"
	"chronofeed/services/social/internal/usecase"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const maxLatencyMicros = int64(60 * time.Second / time.Microsecond)

func main() {
	var (
		workers  = flag.Int("c", 8, "concurrent workers")
		duration = flag.Duration("d", 10*time.Second, "benchmark duration")
		limit    = flag.Int("limit", 20, "page size")
		pages    = flag.Int("pages", 3, "pages spread across requests")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New()
	backend, err := socialApp.OpenBackend(cfg)
	if err != nil {
		log.Error("Failed to open %s store: %v", cfg.StoreBackend, err)
		panic(err)
	}
	defer backend.Close()

	store := backend.Store
	profileRepo := persistent.NewProfileRepository(store)
	feeds := usecase.NewFeedUseCase(
		profileRepo,
		persistent.NewGraphRepository(store),
		persistent.NewPostRepository(store),
		persistent.NewCommentRepository(store),
		usecase.Limits{FeedMaxScan: cfg.FeedMaxScan},
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	usernames, err := profileRepo.Usernames(ctx)
	if err != nil {
		log.Error("Failed to list users: %v", err)
		panic(err)
	}
	if len(usernames) == 0 {
		log.Error("No users found; run the seed command first")
		return
	}

	var (
		mu       sync.Mutex
		total    = hdrhistogram.New(1, maxLatencyMicros, 3)
		failures atomic.Int64
		wg       sync.WaitGroup
	)
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			local := hdrhistogram.New(1, maxLatencyMicros, 3)

			for ctx.Err() == nil {
				username := usernames[rng.Intn(len(usernames))]
				page := rng.Intn(*pages) + 1

				start := time.Now()
				_, err := feeds.GetFeed(ctx, username, page, *limit)
				if err != nil {
					if ctx.Err() == nil {
						failures.Add(1)
					}
					continue
				}
				_ = local.RecordValue(time.Since(start).Microseconds())
			}

			mu.Lock()
			total.Merge(local)
			mu.Unlock()
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	fmt.Printf("users=%d workers=%d duration=%s requests=%d errors=%d\n",
		len(usernames), *workers, *duration, total.TotalCount(), failures.Load())
	for _, q := range []float64{50, 90, 99} {
		fmt.Printf("p%-3.0f %8.2fms\n", q, float64(total.ValueAtQuantile(q))/1000)
	}
	fmt.Printf("max  %8.2fms\n", float64(total.Max())/1000)
}
