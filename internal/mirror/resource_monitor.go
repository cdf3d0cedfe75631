package mirror

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceMonitor 系统资源监控器
// 职责: 周期采样内存与CPU,为下载管线计算并发上限
type ResourceMonitor struct {
	config ResourceMonitorConfig

	// 系统总内存(字节)
	totalMemory uint64

	// 缓存的采样数据
	lastMemStats runtime.MemStats
	lastCPUUsage float64
	mu           sync.RWMutex

	// 监控控制
	cancelFunc context.CancelFunc
	isRunning  bool
}

// ResourceMonitorConfig 资源监控器配置
type ResourceMonitorConfig struct {
	SafetyReserveMemory int64 // 安全保留内存(字节)
	SafetyThreshold     int64 // 安全阈值(字节)
	CPULoadThreshold    int   // CPU负载阈值(%)
	MaxDownloadsLimit   int   // 绝对最大并发下载数
	WorkerMemoryUsage   int64 // 单个下载连接的估算内存消耗(字节)
}

// DefaultMonitorConfig 默认监控配置
func DefaultMonitorConfig(maxDownloads int) ResourceMonitorConfig {
	return ResourceMonitorConfig{
		SafetyReserveMemory: 512 * 1024 * 1024, // 512MB
		SafetyThreshold:     256 * 1024 * 1024, // 256MB
		CPULoadThreshold:    80,
		MaxDownloadsLimit:   maxDownloads,
		WorkerMemoryUsage:   16 * 1024 * 1024, // 16MB per connection
	}
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor(config ResourceMonitorConfig) *ResourceMonitor {
	if config.WorkerMemoryUsage == 0 {
		config.WorkerMemoryUsage = 16 * 1024 * 1024
	}
	if config.MaxDownloadsLimit < 1 {
		config.MaxDownloadsLimit = 1
	}

	// 使用gopsutil获取真实系统内存
	vmStat, err := mem.VirtualMemory()
	var totalMem uint64
	if err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败,使用默认值")
		totalMem = 4 * 1024 * 1024 * 1024 // 默认4GB
	} else {
		totalMem = vmStat.Total
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &ResourceMonitor{
		config:       config,
		totalMemory:  totalMem,
		lastMemStats: memStats,
	}
}

// StartMonitoring 启动资源监控
// 启动后台goroutine周期性采样,重复调用幂等
func (rm *ResourceMonitor) StartMonitoring(interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	rm.cancelFunc = cancel
	rm.isRunning = true

	go rm.monitoringLoop(ctx, interval)
}

// monitoringLoop 后台监控循环
func (rm *ResourceMonitor) monitoringLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)

			cpuUsage := rm.sampleCPUUsage()

			rm.mu.Lock()
			rm.lastMemStats = memStats
			rm.lastCPUUsage = cpuUsage
			rm.mu.Unlock()
		}
	}
}

// sampleCPUUsage 获取系统CPU使用率(百分比)
func (rm *ResourceMonitor) sampleCPUUsage() float64 {
	// 100毫秒采样间隔,避免阻塞过久; perCPU=false返回所有核心的平均值
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		return 0.0
	}
	return percentages[0]
}

// StopMonitoring 停止资源监控
func (rm *ResourceMonitor) StopMonitoring() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.isRunning && rm.cancelFunc != nil {
		rm.cancelFunc()
		rm.isRunning = false
		rm.cancelFunc = nil
	}
}

// CalculateMaxDownloads 计算当前允许的并发下载上限
// 基于可用内存和CPU负载,上限为配置的MaxDownloadsLimit,下限为1
func (rm *ResourceMonitor) CalculateMaxDownloads() int {
	rm.mu.RLock()
	memStats := rm.lastMemStats
	cpuUsage := rm.lastCPUUsage
	rm.mu.RUnlock()

	availableMemory := int64(rm.totalMemory) - int64(memStats.Alloc) - rm.config.SafetyReserveMemory

	// 基于内存计算上限
	maxByMemory := 1
	if availableMemory > rm.config.SafetyThreshold {
		surplus := availableMemory - rm.config.SafetyThreshold
		maxByMemory = int(surplus / rm.config.WorkerMemoryUsage)
		if maxByMemory < 1 {
			maxByMemory = 1
		}
	}

	result := maxByMemory
	if cpus := runtime.NumCPU() * 2; cpus < result {
		result = cpus
	}
	if rm.config.MaxDownloadsLimit < result {
		result = rm.config.MaxDownloadsLimit
	}

	// CPU负载过高时减半
	if rm.config.CPULoadThreshold > 0 && cpuUsage > float64(rm.config.CPULoadThreshold) {
		result = result / 2
	}

	if result < 1 {
		result = 1
	}
	return result
}
