package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/universe-engine/internal/api"
	"github.com/rawblock/universe-engine/internal/delta"
	"github.com/rawblock/universe-engine/internal/materializer"
	"github.com/rawblock/universe-engine/internal/store"
	"github.com/rawblock/universe-engine/internal/tick"
	"github.com/rawblock/universe-engine/internal/tiered"
	"github.com/rawblock/universe-engine/internal/voidpool"
)

// maxTrackedAssets bounds both the VoidPool's ring (when
// ENABLE_VOIDPOOL is set) and the tick engine's per-slot detector
// banks, so slot ids issued by one are always valid indices into the
// other. Must be a power of two for the VoidPool.
const maxTrackedAssets = 65536

func main() {
	log.Println("Starting universe-engine (Microservice: universe-engine)...")
	log.Println("Initializing VoidPool, snapshot store, and tiered builder...")

	dbURL := os.Getenv("DATABASE_URL")

	var pool *pgxpool.Pool
	var mat *materializer.Materializer
	var sovereign *tiered.SovereignSource

	if dbURL == "" {
		log.Println("WARNING: DATABASE_URL not set — engine running in Ambassador/Sentinel-only mode")
	} else {
		var err error
		pool, err = pgxpool.New(context.Background(), dbURL)
		if err != nil {
			log.Printf("Warning: failed to connect to PostgreSQL, continuing without Sovereign tier: %v", err)
		} else {
			db := materializer.NewDB(pool)
			if err := db.InitSchema(context.Background()); err != nil {
				log.Printf("Warning: schema init failed: %v", err)
			}
			workers := getEnvInt("MATERIALIZER_WORKERS", materializer.DefaultWorkers)
			mat = materializer.New(db, workers)
			sovereign = tiered.NewSovereignSource(pool)
			defer pool.Close()
		}
	}

	ambassador := tiered.NewAmbassadorSource("universe-engine")
	sentinel := tiered.NewSentinelSource()
	builder := tiered.NewBuilder(sovereign, ambassador, sentinel)

	vstore := store.New()

	debug := getEnvBool("DEBUG", false)
	hub := delta.NewHub()
	go hub.Run()

	var vpool *voidpool.Pool
	if getEnvBool("ENABLE_VOIDPOOL", false) {
		vpool = voidpool.New(maxTrackedAssets)
		vpool.Prime(maxTrackedAssets)
		log.Printf("VoidPool primed: capacity=%d free=%d", vpool.Capacity(), vpool.FreeCount())
	}

	server := api.NewServer(vstore, builder, mat, hub, vpool, debug)

	if err := server.RefreshStore(context.Background()); err != nil {
		log.Printf("Warning: initial store refresh failed: %v", err)
	} else {
		log.Printf("Store initialized from tier=%s rows=%d", server.CurrentTier(), vstore.Len())
	}

	streamer := delta.NewStreamer(hub, server.SnapshotSource)
	streamCtx, cancelStream := context.WithCancel(context.Background())
	defer cancelStream()
	go streamer.Run(streamCtx)

	workCap := getEnvInt("WORK_CAP_PER_TICK", tick.DefaultWorkCapPerTick)
	engine := tick.New(vstore, maxTrackedAssets, workCap)
	driver := newSyntheticPriceDriver()
	tickCtx, cancelTick := context.WithCancel(context.Background())
	defer cancelTick()
	go runTickLoop(tickCtx, engine, vstore, driver)

	r := api.SetupRouter(server)

	port := getEnvOrDefault("PORT", "5339")
	log.Printf("Engine running on :%s (API Node: universe-engine)\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

// syntheticPriceDriver generates a deterministic per-symbol random
// walk, the same seeded-rand idiom Ambassador uses to fabricate a
// plausible universe, so the tick engine always has a price stream to
// process instead of sitting idle between real ingest integrations.
type syntheticPriceDriver struct {
	rng    *rand.Rand
	prices map[string]float64
}

func newSyntheticPriceDriver() *syntheticPriceDriver {
	return &syntheticPriceDriver{
		rng:    rand.New(rand.NewSource(1)),
		prices: make(map[string]float64),
	}
}

// batch produces one price/volume observation per symbol, walking each
// symbol's last known price by up to +/-1%.
func (d *syntheticPriceDriver) batch(symbols []string) []tick.Update {
	out := make([]tick.Update, 0, len(symbols))
	for _, symbol := range symbols {
		price, ok := d.prices[symbol]
		if !ok {
			price = 50 + d.rng.Float64()*150
		}
		price *= 1 + (d.rng.Float64()-0.5)*0.02
		if price < 0.01 {
			price = 0.01
		}
		d.prices[symbol] = price
		out = append(out, tick.Update{
			Symbol: symbol,
			Price:  price,
			Volume: 500 + d.rng.Float64()*500,
		})
	}
	return out
}

// runTickLoop drives the tick engine once a second with a synthetic
// price batch for every symbol currently in the store, so the meta32
// lane (shock8/risk8/trend2/vital6) is patched continuously rather
// than only ever exercised by unit tests.
func runTickLoop(ctx context.Context, engine *tick.Engine, vstore *store.VertexStore, driver *syntheticPriceDriver) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	log.Println("[tick] synthetic price driver started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[tick] synthetic price driver stopped")
			return
		case <-ticker.C:
			symbols := vstore.Symbols()
			if len(symbols) == 0 {
				continue
			}
			engine.Tick(driver.batch(symbols), vstore.IndexOf)
		}
	}
}
