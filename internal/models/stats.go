package models

// TaskStats 镜像任务统计
type TaskStats struct {
	VisitedPages       int     `json:"visited_pages"`       // 已渲染页面数
	PageFiles          int     `json:"page_files"`          // 已保存页面快照数
	ResourceFiles      int     `json:"resource_files"`      // 已落盘资源文件数
	ExternalResources  int     `json:"external_resources"`  // 外域资源数(仅抓取不落盘)
	SkippedResources   int     `json:"skipped_resources"`   // 去重跳过的资源数
	FailedResources    int     `json:"failed_resources"`    // 下载失败的资源数
	DuplicateResources int     `json:"duplicate_resources"` // 内容哈希重复的资源数
	FailedPages        int     `json:"failed_pages"`        // 渲染失败的页面数
	TotalSize          int64   `json:"total_size"`          // 落盘总大小(字节)
	Duration           float64 `json:"duration"`            // 总耗时(秒)
}
