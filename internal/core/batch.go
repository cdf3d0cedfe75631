package core

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/SiteMirror/internal/browser"
	"github.com/RecoveryAshes/SiteMirror/internal/models"
	"github.com/RecoveryAshes/SiteMirror/internal/utils"
)

// RendererFactory 渲染器工厂
// 批量镜像为每个URL创建独立的浏览器会话,目标间完全隔离
type RendererFactory func() (browser.Renderer, error)

// BatchMirror 批量镜像器
type BatchMirror struct {
	config        models.MirrorConfig
	outputDir     string
	batchDelay    time.Duration
	continueOnErr bool
	newRenderer   RendererFactory
}

// BatchResult 单个URL的镜像结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Stats       models.TaskStats
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量镜像摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalPages    int
	TotalFiles    int
	TotalSize     int64
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchMirror 创建批量镜像器
func NewBatchMirror(config models.MirrorConfig, outputDir string, batchDelay int, continueOnErr bool, newRenderer RendererFactory) *BatchMirror {
	return &BatchMirror{
		config:        config,
		outputDir:     outputDir,
		batchDelay:    time.Duration(batchDelay) * time.Second,
		continueOnErr: continueOnErr,
		newRenderer:   newRenderer,
	}
}

// MirrorBatch 批量镜像URL列表
func (bm *BatchMirror) MirrorBatch(urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量镜像: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	startTime := time.Now()

	for i, targetURL := range urls {
		utils.Infof("\n==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标URL: %s", targetURL)

		result := bm.mirrorSingleURL(targetURL)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalPages += result.Stats.PageFiles
			summary.TotalFiles += result.Stats.ResourceFiles
			summary.TotalSize += result.Stats.TotalSize
		} else {
			summary.FailCount++
			utils.Errorf("❌ 镜像失败: %v", result.Error)

			if !bm.continueOnErr {
				utils.Warn("批量镜像中止 (--continue-on-error=false)")
				break
			}
		}

		// 最后一个URL之后不需要延迟
		if i < len(urls)-1 && bm.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个URL...", bm.batchDelay.Seconds())
			time.Sleep(bm.batchDelay)
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()

	bm.printSummary(summary)

	return summary, nil
}

// mirrorSingleURL 镜像单个URL,使用独立的浏览器会话
func (bm *BatchMirror) mirrorSingleURL(targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	renderer, err := bm.newRenderer()
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("创建渲染器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}
	defer renderer.Close()

	m, err := NewMirror(targetURL, bm.config, bm.outputDir, renderer)
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("创建镜像任务失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	if err := m.Run(); err != nil {
		result.Success = false
		result.Error = fmt.Errorf("镜像失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	result.Success = true
	result.Stats = m.Stats()
	result.Duration = time.Since(startTime).Seconds()

	return result
}

// printSummary 打印批量镜像摘要
func (bm *BatchMirror) printSummary(summary *BatchSummary) {
	utils.Info("\n==================================================")
	utils.Info("📊 批量镜像摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📄 总页面数: %d", summary.TotalPages)
	utils.Infof("📦 总资源数: %d", summary.TotalFiles)
	utils.Infof("📦 总大小: %.2f MB", float64(summary.TotalSize)/(1024*1024))
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("\n失败的URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
