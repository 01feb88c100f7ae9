package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"postboard/pkg/client"
)

// 模拟大量匿名访客同时点赞同一篇帖子，校验计数与成功次数一致；
// -watch 模式下只订阅帖子流并打印每次推送。
func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "服务地址")
		postID   = flag.String("post", "", "帖子 ID，为空时取最新一篇")
		visitors = flag.Int("visitors", 500, "并发访客数")
		watch    = flag.Bool("watch", false, "只订阅帖子流")
	)
	flag.Parse()

	if *watch {
		watchFeed(*baseURL)
		return
	}

	// 所有访客共享连接池
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient := &http.Client{Transport: t, Timeout: 10 * time.Second}

	ctx := context.Background()
	probe := client.New(*baseURL, client.WithHTTPClient(httpClient))

	target := *postID
	before := 0
	posts, err := probe.Feed(ctx)
	if err != nil {
		fmt.Printf("读取帖子失败: %v\n", err)
		os.Exit(1)
	}
	for _, p := range posts {
		if target == "" || p.ID == target {
			target, before = p.ID, p.LikesCount
			break
		}
	}
	if target == "" {
		fmt.Println("没有可用的帖子，请先发布一篇")
		os.Exit(1)
	}

	fmt.Printf("开始压测：%d 个匿名访客同时点赞帖子 %s（当前 %d 赞）...\n", *visitors, target, before)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)
	start := time.Now()
	for i := 0; i < *visitors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 每个访客独立的匿名令牌
			c := client.New(*baseURL, client.WithHTTPClient(httpClient))
			res, err := c.ToggleLike(ctx, target, &client.LikeState{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil || res.Delta != 1 {
				failed++
				return
			}
			succeeded++
		}()
	}
	wg.Wait()
	duration := time.Since(start)

	after := before
	if posts, err := probe.Feed(ctx); err == nil {
		for _, p := range posts {
			if p.ID == target {
				after = p.LikesCount
			}
		}
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("QPS: %.2f\n", float64(*visitors)/duration.Seconds())
	fmt.Printf("点赞成功: %d，失败（含限流）: %d\n", succeeded, failed)
	fmt.Printf("计数变化: %d -> %d (预期增加 %d)\n", before, after, succeeded)
	if after-before != succeeded {
		fmt.Println("计数不一致!")
		os.Exit(1)
	}
	fmt.Println("--------------------------------------------------")
}

func watchFeed(baseURL string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := client.New(baseURL).WatchFeed(ctx, func(posts []client.Post) {
		fmt.Printf("[%s] 收到 %d 篇帖子\n", time.Now().Format(time.TimeOnly), len(posts))
		for _, p := range posts {
			fmt.Printf("  %s  %-40s  %d 赞\n", p.CreatedAt.Format(time.DateTime), p.Title, p.LikesCount)
		}
	})
	if err != nil {
		fmt.Printf("订阅失败: %v\n", err)
		os.Exit(1)
	}
}
