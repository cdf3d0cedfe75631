package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/SiteMirror/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	siteDir string // 站点输出根目录 (output/domain)
	domain  string
}

// NewReporter 创建报告生成器
func NewReporter(siteDir string, domain string) *Reporter {
	return &Reporter{
		siteDir: siteDir,
		domain:  domain,
	}
}

// GenerateReport 生成镜像报告
// 写入 reports/mirror_report.json + success_files.json + failed_files.json
func (r *Reporter) GenerateReport(
	targetURL string,
	stats models.TaskStats,
	successFiles []models.FileInfo,
	failedFiles []models.FailedFileInfo,
	visitedURLs []string,
	config models.MirrorConfig,
) error {
	reportsDir := filepath.Join(r.siteDir, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	report := models.MirrorReport{
		RunID:        models.NewRunID(),
		TargetURL:    targetURL,
		Domain:       r.domain,
		StartTime:    time.Now().Add(-time.Duration(stats.Duration * float64(time.Second))),
		EndTime:      time.Now(),
		Duration:     stats.Duration,
		Stats:        stats,
		SuccessFiles: successFiles,
		FailedFiles:  failedFiles,
		VisitedURLs:  visitedURLs,
		OutputDir:    r.siteDir,
		Config:       config,
	}

	if err := r.saveJSONReport(reportsDir, "mirror_report.json", report); err != nil {
		return err
	}

	if err := r.saveJSONReport(reportsDir, "success_files.json", successFiles); err != nil {
		return err
	}

	if err := r.saveJSONReport(reportsDir, "failed_files.json", failedFiles); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	outPath := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(outPath, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", outPath)
	return nil
}

// NewProgressBar 创建下载进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
