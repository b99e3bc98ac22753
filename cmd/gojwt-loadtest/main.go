package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goJWT "github.com/MrEthical07/goJWT"
	"github.com/MrEthical07/goJWT/value"
)

type keyPair struct {
	sign   []byte
	verify []byte
}

func main() {
	var (
		claimSets   = flag.Int("claims", 1000, "number of distinct claim sets to encode")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (encode + decode)")
		alg         = flag.String("alg", "HS256", "signing algorithm: HS256 or ES256")
		envFile     = flag.String("env", "", "optional dotenv file with GOJWT_* settings")
	)
	flag.Parse()

	if *claimSets <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "claims, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := goJWT.LoadConfig(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	codec, err := goJWT.New().
		WithConfig(cfg).
		WithLogger(goJWT.NewLogger(os.Stderr, cfg)).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build codec: %v\n", err)
		os.Exit(1)
	}
	defer codec.Close()

	keys, err := keysFor(*alg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keys: %v\n", err)
		os.Exit(2)
	}

	header := value.Object("alg", *alg, "kid", "loadtest")
	claims := make([]*value.Table, *claimSets)
	for i := range claims {
		claims[i] = buildClaims(i)
	}

	ctx := context.Background()
	tokens := make([]string, *claimSets)
	fmt.Printf("seeding %d tokens with %s...\n", *claimSets, *alg)
	startSeed := time.Now()
	for i, c := range claims {
		tokens[i], err = codec.Encode(ctx, header, c, keys.sign)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed encode failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	encodeStats := runPhase(*ops, *concurrency, func(r *mrand.Rand) error {
		_, err := codec.Encode(ctx, header, claims[r.Intn(len(claims))], keys.sign)
		return err
	})
	decodeStats := runPhase(*ops, *concurrency, func(r *mrand.Rand) error {
		_, _, err := codec.Decode(ctx, tokens[r.Intn(len(tokens))], keys.verify)
		return err
	})

	fmt.Println("---- results ----")
	printStats("encode", encodeStats)
	printStats("decode", decodeStats)

	snap := codec.MetricsSnapshot()
	fmt.Printf("codec: encoded=%d decoded=%d verified=%d failures=%d\n",
		snap.Counters[goJWT.MetricEncodeSuccess],
		snap.Counters[goJWT.MetricDecodeSuccess],
		snap.Counters[goJWT.MetricDecodeVerified],
		snap.Counters[goJWT.MetricEncodeFailure]+snap.Counters[goJWT.MetricDecodeFailure],
	)
}

func runPhase(ops, concurrency int, op func(r *mrand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildClaims(i int) *value.Table {
	now := time.Now()
	return value.Object(
		"sub", fmt.Sprintf("user-%d", i),
		"tenant", i%17,
		"roles", value.NewArray(value.String("member"), value.String(fmt.Sprintf("group-%d", i%5))),
		"exp", now.Add(time.Hour).Unix(),
		"ctx", value.Object("device", "loadtest", "seq", i),
	)
}

func keysFor(alg string) (keyPair, error) {
	switch alg {
	case "HS256":
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return keyPair{}, err
		}
		return keyPair{sign: secret, verify: secret}, nil
	case "ES256":
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return keyPair{}, err
		}
		priv, err := x509.MarshalECPrivateKey(k)
		if err != nil {
			return keyPair{}, err
		}
		pub, err := x509.MarshalPKIXPublicKey(&k.PublicKey)
		if err != nil {
			return keyPair{}, err
		}
		return keyPair{
			sign:   pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: priv}),
			verify: pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub}),
		}, nil
	default:
		return keyPair{}, fmt.Errorf("unsupported -alg %q", alg)
	}
}
