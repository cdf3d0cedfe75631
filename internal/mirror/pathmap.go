package mirror

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// nonWordChars 站点目录名中需要替换的字符
var nonWordChars = regexp.MustCompile(`[^\w\-]`)

// SanitizeHost 将主机名转换为安全的目录名
// 例如: "example.test:8080" -> "example_test_8080"
func SanitizeHost(host string) string {
	return nonWordChars.ReplaceAllString(host, "_")
}

// PathMapper URL到磁盘路径的映射器
// 映射规则: 去除查询串,按URL路径段在输出根目录下保持原始目录结构
type PathMapper struct {
	siteDir string // 站点输出根目录
}

// NewPathMapper 创建路径映射器
func NewPathMapper(siteDir string) *PathMapper {
	return &PathMapper{siteDir: siteDir}
}

// SiteDir 返回站点输出根目录
func (m *PathMapper) SiteDir() string {
	return m.siteDir
}

// relPath 提取URL或路径的相对磁盘路径(不含前导斜杠和查询串)
func (m *PathMapper) relPath(urlOrPath string) string {
	p := urlOrPath

	// 绝对URL取其path部分
	if parsed, err := url.Parse(urlOrPath); err == nil && parsed.Host != "" {
		p = parsed.Path
	}

	// 去除查询串和片段
	if idx := strings.IndexAny(p, "?#"); idx != -1 {
		p = p[:idx]
	}

	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	return p
}

// MapResource 资源URL映射为磁盘路径
// 根URL或空路径映射为输出根目录下的index.html
// 调用后保证父目录已存在
func (m *PathMapper) MapResource(urlOrPath string) (string, error) {
	rel := m.relPath(urlOrPath)
	if rel == "" {
		rel = "index.html"
	}

	fullPath := filepath.Join(m.siteDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}
	return fullPath, nil
}

// MapPage 页面URL映射为磁盘路径
// 路径未以HTML文件名结尾时,映射为该路径目录下的index.html
// 例如: /blog/post -> blog/post/index.html
func (m *PathMapper) MapPage(pageURL string) (string, error) {
	rel := m.relPath(pageURL)

	switch {
	case rel == "":
		rel = "index.html"
	case !strings.HasSuffix(rel, ".html") && !strings.HasSuffix(rel, ".htm"):
		rel = path.Join(rel, "index.html")
	}

	fullPath := filepath.Join(m.siteDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}
	return fullPath, nil
}
