package models

import "time"

// MirrorReport 镜像任务报告
type MirrorReport struct {
	RunID     string    `json:"run_id"`     // 本次运行的唯一ID (UUID)
	TargetURL string    `json:"target_url"` // 起始URL
	Domain    string    `json:"domain"`     // 站点域名
	StartTime time.Time `json:"start_time"` // 开始时间
	EndTime   time.Time `json:"end_time"`   // 结束时间
	Duration  float64   `json:"duration"`   // 总耗时(秒)

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 文件清单
	SuccessFiles []FileInfo       `json:"success_files"` // 成功文件列表
	FailedFiles  []FailedFileInfo `json:"failed_files"`  // 失败文件列表

	// 页面访问记录
	VisitedURLs []string `json:"visited_urls"`

	// 输出信息
	OutputDir string `json:"output_dir"` // 站点输出根目录

	// 本次运行使用的配置
	Config MirrorConfig `json:"config"`
}
