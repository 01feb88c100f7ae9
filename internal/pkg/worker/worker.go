package worker

import (
	"context"
	"sync"
	"time"

	"postboard/pkg/logger"

	"go.uber.org/zap"
)

// Deleter 删除存储对象，uploader.Uploader 满足该接口
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// CleanupTask 待删除的孤儿附件
type CleanupTask struct {
	Key   string
	Retry int // 重试次数
}

// WorkerPool 孤儿附件清理池：帖子写入失败后，异步删除已上传的对象
type WorkerPool struct {
	TaskQueue  chan CleanupTask
	RetryQueue chan CleanupTask // 重试队列
	Store      Deleter
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	Backoff    time.Duration // 每次重试的基础等待
	Timeout    time.Duration // 单次删除超时

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
	onFail   func(task CleanupTask, err error)
	onDone   func(task CleanupTask)
}

func NewWorkerPool(store Deleter, workerNum int, bufferSize int, maxRetry int) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize <= 1 {
		bufferSize = 2
	}
	if maxRetry < 0 {
		maxRetry = 0
	}
	return &WorkerPool{
		TaskQueue:  make(chan CleanupTask, bufferSize),
		RetryQueue: make(chan CleanupTask, bufferSize/2),
		Store:      store,
		WorkerNum:  workerNum,
		MaxRetry:   maxRetry,
		Backoff:    time.Second,
		Timeout:    10 * time.Second,
		stop:       make(chan struct{}),
	}
}

// OnDeadLetter 注册最终失败回调，需在 Start 之前调用
func (p *WorkerPool) OnDeadLetter(fn func(task CleanupTask, err error)) {
	p.onFail = fn
}

// OnRemoved 注册删除成功回调，需在 Start 之前调用
func (p *WorkerPool) OnRemoved(fn func(task CleanupTask)) {
	p.onDone = fn
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	logger.Log.Info("cleanup worker pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 停止接收并等待协程退出，队列中未处理的任务记入死信
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.wg.Wait()
		for {
			select {
			case task := <-p.TaskQueue:
				p.logFailedTask(task, context.Canceled)
			case task := <-p.RetryQueue:
				p.logFailedTask(task, context.Canceled)
			default:
				return
			}
		}
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case task := <-p.TaskQueue:
			p.handle(id, task)
		}
	}
}

func (p *WorkerPool) handle(id int, task CleanupTask) {
	err := p.processTask(task)
	if err == nil {
		logger.Log.Debug("orphan object removed", zap.Int("worker", id), zap.String("key", task.Key))
		if p.onDone != nil {
			p.onDone(task)
		}
		return
	}

	logger.Log.Warn("failed to remove orphan object",
		zap.Int("worker", id), zap.String("key", task.Key), zap.Int("retry", task.Retry), zap.Error(err))

	// 如果未达到最大重试次数，加入重试队列
	if task.Retry < p.MaxRetry {
		task.Retry++
		select {
		case p.RetryQueue <- task:
		default:
			p.logFailedTask(task, err)
		}
		return
	}
	p.logFailedTask(task, err)
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-time.After(time.Duration(task.Retry) * p.Backoff):
			case <-p.stop:
				p.logFailedTask(task, context.Canceled)
				return
			}

			select {
			case p.TaskQueue <- task:
			default:
				p.logFailedTask(task, nil)
			}
		}
	}
}

func (p *WorkerPool) processTask(task CleanupTask) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	defer cancel()
	return p.Store.Delete(ctx, task.Key)
}

func (p *WorkerPool) logFailedTask(task CleanupTask, err error) {
	logger.Log.Error("[DeadLetter] orphan object left in storage",
		zap.String("key", task.Key), zap.Int("retry", task.Retry), zap.Error(err))
	if p.onFail != nil {
		p.onFail(task, err)
	}
}

// AddTask 提交清理任务，队列满时直接记入死信
func (p *WorkerPool) AddTask(task CleanupTask) {
	select {
	case p.TaskQueue <- task:
	default:
		p.logFailedTask(task, nil)
	}
}

// Enqueue 按对象 key 提交清理
func (p *WorkerPool) Enqueue(keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		p.AddTask(CleanupTask{Key: k})
	}
}
