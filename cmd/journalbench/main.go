package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/postjournal/config"
	"github.com/d60-Lab/postjournal/internal/auth"
	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
	"github.com/d60-Lab/postjournal/internal/service"
	"github.com/d60-Lab/postjournal/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// 压测字段修改：USERS 个用户各改名 UPDATES 次，每次修改与审计记录同一事务落库
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := repository.Migrate(db); err != nil {
		panic(err)
	}

	USERS := envInt("USERS", 50)
	UPDATES := envInt("UPDATES", 20)
	CONC := envInt("CONC", 4)

	authority := auth.NewAuthority(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.Issuer, nil)
	svc := service.NewAccountService(db,
		repository.NewUserRepository(db),
		repository.NewPostRepository(db),
		repository.NewJournalRepository(db),
		authority)
	svc.SetHashCost(bcrypt.MinCost)

	ctx := context.Background()
	run := model.NewID()[:8]
	users := make([]*model.User, 0, USERS)
	for i := 0; i < USERS; i++ {
		u := must(svc.Register(ctx, service.RegisterInput{
			Username: fmt.Sprintf("bench%d", i),
			Email:    fmt.Sprintf("bench-%s-%d@example.com", run, i),
			Password: "Passw0rd!",
		}))
		users = append(users, u)
	}

	var (
		mu        sync.Mutex
		durations = make([]time.Duration, 0, USERS*UPDATES)
		failures  int
		wg        sync.WaitGroup
	)
	jobs := make(chan *model.User)
	start := time.Now()
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				for k := 0; k < UPDATES; k++ {
					st := time.Now()
					_, err := svc.UpdateUsername(ctx, u.ID, fmt.Sprintf("%s-%d", u.Username, k))
					d := time.Since(st)
					mu.Lock()
					if err != nil {
						failures++
					} else {
						durations = append(durations, d)
					}
					mu.Unlock()
				}
			}
		}()
	}
	for _, u := range users {
		jobs <- u
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	// 抽查 user0 的变更日志
	st := time.Now()
	recs := must(svc.Journal().Query(ctx, users[0].ID, nil))
	queryDur := time.Since(st)

	fmt.Printf("USERS=%d UPDATES=%d CONC=%d db=%s\n", USERS, UPDATES, CONC, cfg.Database.Driver)
	fmt.Printf("Update+journal tx: ok=%d failed=%d throughput=%.1f/s avg=%v p95=%v p99=%v\n",
		len(durations), failures, float64(len(durations))/elapsed.Seconds(), avg(durations), pct(durations, 0.95), pct(durations, 0.99))
	fmt.Printf("Journal query (user0): %v, records=%d\n", queryDur, len(recs))
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	cp := append([]time.Duration(nil), vs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	idx := int(math.Ceil(p*float64(len(cp)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(cp) {
		idx = len(cp) - 1
	}
	return cp[idx]
}
