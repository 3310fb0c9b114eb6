package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/postjournal/config"
	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/moderation"
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

// 压测自动回复：POSTS 篇帖子各排期 PER_POST 个动作，统计从排期到回复落库的耗时
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := repository.Migrate(db); err != nil {
		panic(err)
	}

	POSTS := envInt("POSTS", 200)
	PER_POST := envInt("PER_POST", 5)
	DELAY_MS := envInt("DELAY_MS", 10)

	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	writer := service.NewCommentWriter(commentRepo, moderation.New(cfg.Moderation.Words...))
	scheduler := service.NewScheduler(postRepo, commentRepo, writer, service.SchedulerOptions{
		FireTimeout: cfg.Scheduler.FireTimeout,
	})

	ctx := context.Background()
	author := model.NewID()
	posts := make([]*model.Post, 0, POSTS)
	for i := 0; i < POSTS; i++ {
		p := &model.Post{AuthorID: author, Title: fmt.Sprintf("bench %d", i), Content: "hello", AutoReplyEnabled: true}
		if err := postRepo.Create(ctx, p); err != nil {
			panic(err)
		}
		posts = append(posts, p)
	}

	total := POSTS * PER_POST
	schedDurations := make([]time.Duration, 0, total)
	pendings := make([]*service.Pending, 0, total)
	for _, p := range posts {
		for j := 0; j < PER_POST; j++ {
			st := time.Now()
			pendings = append(pendings, scheduler.Schedule(service.Action{PostID: p.ID, Delay: time.Duration(DELAY_MS) * time.Millisecond}))
			schedDurations = append(schedDurations, time.Since(st))
		}
	}

	land := make([]time.Duration, 0, total)
	timeout := time.After(2 * time.Minute)
	for len(land) < total {
		select {
		case d := <-scheduler.Metrics():
			land = append(land, d)
		case <-timeout:
			fmt.Printf("timeout while waiting for reply metrics: got=%d want=%d\n", len(land), total)
			goto PRINT
		}
	}

PRINT:
	outcomes := map[service.Outcome]int{}
	for _, pd := range pendings {
		select {
		case <-pd.Done():
			outcomes[pd.Outcome()]++
		default:
			outcomes[service.OutcomePending]++
		}
	}
	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	_ = scheduler.Stop(stopCtx)
	cancel()

	fmt.Printf("POSTS=%d PER_POST=%d DELAY_MS=%d db=%s\n", POSTS, PER_POST, DELAY_MS, cfg.Database.Driver)
	fmt.Printf("Schedule call: avg=%v p95=%v p99=%v\n", avg(schedDurations), pct(schedDurations, 0.95), pct(schedDurations, 0.99))
	fmt.Printf("Reply landing (schedule->insert): samples=%d avg=%v p95=%v p99=%v\n", len(land), avg(land), pct(land, 0.95), pct(land, 0.99))
	for o, n := range outcomes {
		fmt.Printf("  outcome %-14s %d\n", o, n)
	}
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
