package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/example/motorambos/internal/geo"
	"github.com/example/motorambos/internal/models"
)

var (
	msgsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_consumed_total",
		Help: "Total provider update messages consumed",
	})
	msgsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_messages_invalid_total",
		Help: "Total invalid messages received",
	})
	geoUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_geo_updates_total",
		Help: "Total successful geo index updates",
	})
	geoErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consumer_geo_errors_total",
		Help: "Total geo index errors",
	})
)

func init() {
	prometheus.MustRegister(msgsConsumed, msgsInvalid, geoUpdates, geoErrors)
}

func main() {
	_ = godotenv.Load()

	// allow some flags for local runs
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", ":2112", "address to serve prometheus metrics on")
	flag.Parse()

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	if brokersEnv == "" {
		brokersEnv = os.Getenv("KAFKA_BROKER")
	}
	brokers := []string{}
	if brokersEnv != "" {
		for _, b := range strings.Split(brokersEnv, ",") {
			if s := strings.TrimSpace(b); s != "" {
				brokers = append(brokers, s)
			}
		}
	} else {
		brokers = []string{"localhost:9092"}
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "provider-locations"
	}
	group := os.Getenv("KAFKA_GROUP")
	if group == "" {
		group = "motorambos-consumer"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	prefix := os.Getenv("REDIS_PREFIX")
	if prefix == "" {
		prefix = "providers"
	}
	index := geo.NewRedisGeo(redisAddr, os.Getenv("REDIS_PASSWORD"), prefix)

	// start metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
		log.Printf("metrics/health listening on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic, GroupID: group, MinBytes: 10e3, MaxBytes: 10e6})
	defer func() {
		_ = r.Close()
		_ = index.Close()
	}()

	log.Printf("consumer listening topic=%s brokers=%v group=%s", topic, brokers, group)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("shutting down consumer")
				return
			}
			log.Printf("kafka read error: %v; backing off %s", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		// reset backoff on success
		backoff = time.Second

		msgsConsumed.Inc()

		var p models.Provider
		if err := json.Unmarshal(m.Value, &p); err != nil || p.ID == "" {
			msgsInvalid.Inc()
			log.Printf("invalid message: %v", err)
			continue
		}

		if err := upsertWithRetry(ctx, index, p, 3, 200*time.Millisecond); err != nil {
			geoErrors.Inc()
			log.Printf("geo update failed for provider=%s: %v", p.ID, err)
			continue
		}
		geoUpdates.Inc()
	}
}

// upsertWithRetry folds a provider update into the geo index with
// bounded retries and exponential backoff.
func upsertWithRetry(ctx context.Context, index geo.Geo, p models.Provider, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = index.Upsert(ctx, p); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}
