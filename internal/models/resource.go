package models

import (
	"path"
	"strings"
	"time"
)

// ResourceKind 资源类型
// 注意: 类型只用于分类统计和报告,下载流程对所有类型一视同仁
type ResourceKind string

const (
	KindScript ResourceKind = "script" // JS脚本
	KindStyle  ResourceKind = "style"  // 样式表
	KindMedia  ResourceKind = "media"  // 图片/音频/视频
	KindModel  ResourceKind = "model"  // 3D模型/纹理资产
	KindOther  ResourceKind = "other"  // 其他
)

// 扩展名分类表
var (
	scriptExtensions = []string{".js", ".mjs", ".jsx", ".wasm"}
	styleExtensions  = []string{".css"}
	mediaExtensions  = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico", ".mp3", ".wav", ".ogg", ".mp4", ".webm"}
	modelExtensions  = []string{".glb", ".gltf", ".bin", ".basis", ".ktx2", ".drc", ".hdr", ".obj", ".fbx"}
)

// ClassifyResource 根据URL扩展名推断资源类型
func ClassifyResource(rawURL string) ResourceKind {
	// 去除查询串后取扩展名
	p := rawURL
	if idx := strings.IndexAny(p, "?#"); idx != -1 {
		p = p[:idx]
	}
	ext := strings.ToLower(path.Ext(p))

	switch {
	case containsExt(scriptExtensions, ext):
		return KindScript
	case containsExt(styleExtensions, ext):
		return KindStyle
	case containsExt(mediaExtensions, ext):
		return KindMedia
	case containsExt(modelExtensions, ext):
		return KindModel
	default:
		return KindOther
	}
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// Resource 一条已发现的待下载资源
type Resource struct {
	ID   string       `json:"id"`   // 唯一ID (UUID)
	URL  string       `json:"url"`  // 绝对URL
	Kind ResourceKind `json:"kind"` // 推断的资源类型
}

// NewResource 创建资源记录并推断类型
func NewResource(rawURL string) Resource {
	return Resource{
		ID:   generateID(),
		URL:  rawURL,
		Kind: ClassifyResource(rawURL),
	}
}

// FileInfo 已落盘文件的元数据
type FileInfo struct {
	URL          string       `json:"url"`           // 来源URL
	FilePath     string       `json:"file_path"`     // 本地保存路径 (未落盘时为空)
	Size         int64        `json:"size"`          // 文件大小(字节)
	Hash         string       `json:"hash"`          // SHA-256哈希
	Kind         ResourceKind `json:"kind"`          // 资源类型
	DownloadedAt time.Time    `json:"downloaded_at"` // 下载时间
}

// FailedFileInfo 下载失败的资源记录
type FailedFileInfo struct {
	URL      string `json:"url"`       // 失败的URL
	ErrorMsg string `json:"error_msg"` // 失败原因
}
