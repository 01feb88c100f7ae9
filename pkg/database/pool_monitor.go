package database

import (
	"sync"
	"time"

	"postboard/pkg/logger"
	"postboard/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PoolMonitor 连接池监控器，定期把 sql.DBStats 写入指标
type PoolMonitor struct {
	db        *gorm.DB
	collector *metrics.MetricsCollector
	interval  time.Duration

	lastWait int64
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPoolMonitor 创建连接池监控器，interval <= 0 时使用 15s
func NewPoolMonitor(db *gorm.DB, collector *metrics.MetricsCollector, interval time.Duration) *PoolMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &PoolMonitor{
		db:        db,
		collector: collector,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start 启动监控协程
func (pm *PoolMonitor) Start() {
	go func() {
		ticker := time.NewTicker(pm.interval)
		defer ticker.Stop()

		pm.collectStats()
		for {
			select {
			case <-ticker.C:
				pm.collectStats()
			case <-pm.stopCh:
				return
			}
		}
	}()
}

func (pm *PoolMonitor) Stop() {
	pm.stopOnce.Do(func() { close(pm.stopCh) })
}

// collectStats 收集统计信息，出现新的连接等待时告警
func (pm *PoolMonitor) collectStats() {
	sqlDB, err := pm.db.DB()
	if err != nil {
		logger.Log.Warn("Failed to get database connection", zap.Error(err))
		return
	}

	stats := sqlDB.Stats()
	pm.collector.UpdateDBConnections(stats.InUse, stats.Idle)

	if stats.WaitCount > pm.lastWait {
		logger.Log.Warn("database pool saturated",
			zap.Int64("new_waits", stats.WaitCount-pm.lastWait),
			zap.Duration("wait_duration", stats.WaitDuration),
			zap.Int("open", stats.OpenConnections),
		)
	}
	pm.lastWait = stats.WaitCount
}
