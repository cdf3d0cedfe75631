package mirror

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// excludedPageExtensions 不作为页面访问的二进制扩展名(这些是资源,不是页面)
var excludedPageExtensions = []string{".pdf", ".jpg", ".png", ".gif"}

// Frontier 爬取前沿
// 职责: 管理已访问页面集合,实施范围约束(同源、扩展名排除)
// 检查+标记必须是单次原子操作,保证每个页面最多渲染一次
type Frontier struct {
	mu      sync.Mutex
	visited map[string]bool

	// 起始URL的源 (scheme + host)
	scheme string
	host   string

	// 访问顺序记录
	order []string
}

// NewFrontier 创建爬取前沿
func NewFrontier(startURL string) (*Frontier, error) {
	parsed, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("解析起始URL失败: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("无法从起始URL中提取域名: %s", startURL)
	}

	return &Frontier{
		visited: make(map[string]bool),
		scheme:  parsed.Scheme,
		host:    parsed.Host,
		order:   make([]string, 0),
	}, nil
}

// Host 返回起始URL的主机名
func (f *Frontier) Host() string {
	return f.host
}

// TryVisit 原子地检查并标记URL为已访问
// 返回true表示本次调用获得了访问权,false表示该URL已被访问过
func (f *Frontier) TryVisit(pageURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visited[pageURL] {
		return false
	}
	f.visited[pageURL] = true
	f.order = append(f.order, pageURL)
	return true
}

// IsVisited 检查URL是否已访问
func (f *Frontier) IsVisited(pageURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited[pageURL]
}

// ShouldEnqueue 判断链接是否应进入爬取范围
// 条件: 未访问过、与起始URL同源、不以被排除的二进制扩展名结尾
func (f *Frontier) ShouldEnqueue(linkURL string) bool {
	parsed, err := url.Parse(linkURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	// 同源检查
	if parsed.Scheme != f.scheme || parsed.Host != f.host {
		return false
	}

	// 扩展名排除
	lower := strings.ToLower(parsed.Path)
	for _, ext := range excludedPageExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}

	return !f.IsVisited(linkURL)
}

// VisitedCount 返回已访问页面数
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// VisitedURLs 按访问顺序返回已访问页面列表
func (f *Frontier) VisitedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}
