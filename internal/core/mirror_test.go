package core

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/SiteMirror/internal/models"
)

// fakeRenderer 测试用渲染器,从预置的页面表返回快照
type fakeRenderer struct {
	pages      map[string]string   // URL -> 渲染后HTML
	network    map[string][]string // URL -> 网络日志资源
	failNav    map[string]bool     // 导航时返回错误的URL
	currentURL string
	navigated  []string
	closed     bool
}

func (f *fakeRenderer) Navigate(pageURL string) error {
	f.navigated = append(f.navigated, pageURL)
	if f.failNav[pageURL] {
		return fmt.Errorf("导航失败")
	}
	if _, ok := f.pages[pageURL]; !ok {
		return fmt.Errorf("页面不存在: %s", pageURL)
	}
	f.currentURL = pageURL
	return nil
}

func (f *fakeRenderer) DocumentSnapshot() (string, error) {
	snapshot, ok := f.pages[f.currentURL]
	if !ok {
		return "", fmt.Errorf("无当前页面")
	}
	return snapshot, nil
}

func (f *fakeRenderer) NetworkResources() ([]string, error) {
	return f.network[f.currentURL], nil
}

func (f *fakeRenderer) WaitForSettle(timeout time.Duration) error { return nil }

func (f *fakeRenderer) CurrentURL() (string, error) { return f.currentURL, nil }

func (f *fakeRenderer) Reload() error { return nil }

func (f *fakeRenderer) Sleep(d time.Duration) {}

func (f *fakeRenderer) Close() { f.closed = true }

func testConfig() models.MirrorConfig {
	return models.MirrorConfig{
		WaitTime:      0,
		SettleTimeout: 1,
		MaxDownloads:  4,
	}
}

// TestMirrorRun 端到端: 渲染两个页面,保存快照并下载资源
func TestMirrorRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img/logo.png":
			w.Write([]byte("png-bytes"))
		case "/css/main.css":
			w.Write([]byte("body{margin:0}"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	renderer := &fakeRenderer{
		pages: map[string]string{
			server.URL: `<html><body>
				<img src="/img/logo.png">
				<a href="/about">关于</a>
			</body></html>`,
			server.URL + "/about": `<html><head>
				<link rel="stylesheet" href="/css/main.css">
			</head><body>关于页面</body></html>`,
		},
		network: map[string][]string{},
	}

	outputDir := t.TempDir()
	m, err := NewMirror(server.URL, testConfig(), outputDir, renderer)
	if err != nil {
		t.Fatalf("创建镜像任务失败: %v", err)
	}

	if err := m.Run(); err != nil {
		t.Fatalf("Run失败: %v", err)
	}

	siteDir := m.SiteDir()

	// 页面快照
	for _, rel := range []string{"index.html", filepath.Join("about", "index.html")} {
		if _, err := os.Stat(filepath.Join(siteDir, rel)); err != nil {
			t.Errorf("页面快照 %s 应已保存: %v", rel, err)
		}
	}

	// 资源文件
	for _, rel := range []string{filepath.Join("img", "logo.png"), filepath.Join("css", "main.css")} {
		if _, err := os.Stat(filepath.Join(siteDir, rel)); err != nil {
			t.Errorf("资源文件 %s 应已落盘: %v", rel, err)
		}
	}

	stats := m.Stats()
	if stats.VisitedPages != 2 {
		t.Errorf("VisitedPages = %d, 期望 2", stats.VisitedPages)
	}
	if stats.PageFiles != 2 {
		t.Errorf("PageFiles = %d, 期望 2", stats.PageFiles)
	}
	if stats.ResourceFiles != 2 {
		t.Errorf("ResourceFiles = %d, 期望 2", stats.ResourceFiles)
	}

	// 报告文件
	if _, err := os.Stat(filepath.Join(siteDir, "reports", "mirror_report.json")); err != nil {
		t.Errorf("镜像报告应已生成: %v", err)
	}
}

// TestMirrorRunNetworkLogResources 网络日志中的资源参与下载
func TestMirrorRunNetworkLogResources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/data.json" {
			w.Write([]byte(`{"ok":true}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	renderer := &fakeRenderer{
		pages: map[string]string{
			server.URL: `<html><body>空页面</body></html>`,
		},
		network: map[string][]string{
			server.URL: {
				server.URL + "/api/data.json",
				"data:image/png;base64,AAAA", // 协议排除
			},
		},
	}

	outputDir := t.TempDir()
	m, err := NewMirror(server.URL, testConfig(), outputDir, renderer)
	if err != nil {
		t.Fatalf("创建镜像任务失败: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run失败: %v", err)
	}

	if _, err := os.Stat(filepath.Join(m.SiteDir(), "api", "data.json")); err != nil {
		t.Errorf("网络日志中的资源应已落盘: %v", err)
	}
}

// TestMirrorRenderErrorPolicy 渲染失败策略
func TestMirrorRenderErrorPolicy(t *testing.T) {
	t.Run("默认整体中止", func(t *testing.T) {
		renderer := &fakeRenderer{
			pages:   map[string]string{},
			failNav: map[string]bool{"https://example.com": true},
		}

		m, err := NewMirror("https://example.com", testConfig(), t.TempDir(), renderer)
		if err != nil {
			t.Fatalf("创建镜像任务失败: %v", err)
		}
		if err := m.Run(); err == nil {
			t.Error("入口页面渲染失败应返回错误")
		}
	})

	t.Run("跳过失败页面继续", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		renderer := &fakeRenderer{
			pages: map[string]string{
				server.URL: `<html><body><a href="/broken">坏链接</a></body></html>`,
			},
			failNav: map[string]bool{server.URL + "/broken": true},
		}

		config := testConfig()
		config.ContinueOnRenderError = true

		m, err := NewMirror(server.URL, config, t.TempDir(), renderer)
		if err != nil {
			t.Fatalf("创建镜像任务失败: %v", err)
		}
		if err := m.Run(); err != nil {
			t.Fatalf("跳过策略下Run不应失败: %v", err)
		}

		stats := m.Stats()
		if stats.VisitedPages != 1 {
			t.Errorf("VisitedPages = %d, 期望 1", stats.VisitedPages)
		}
		if stats.FailedPages != 1 {
			t.Errorf("FailedPages = %d, 期望 1", stats.FailedPages)
		}
	})
}

// TestMirrorInteractive 交互模式从浏览器当前状态开始镜像
func TestMirrorInteractive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	renderer := &fakeRenderer{
		pages: map[string]string{
			server.URL: `<html><body>首页</body></html>`,
		},
	}

	config := testConfig()
	config.Interactive = true

	m, err := NewMirror(server.URL, config, t.TempDir(), renderer)
	if err != nil {
		t.Fatalf("创建镜像任务失败: %v", err)
	}

	var out strings.Builder
	m.SetInteractiveIO(strings.NewReader("url\ndone\n"), &out)

	if err := m.Run(); err != nil {
		t.Fatalf("交互模式Run失败: %v", err)
	}

	if !strings.Contains(out.String(), server.URL) {
		t.Errorf("url命令应输出当前URL, 实际输出: %q", out.String())
	}

	stats := m.Stats()
	if stats.VisitedPages != 1 {
		t.Errorf("VisitedPages = %d, 期望 1", stats.VisitedPages)
	}
}

// TestMirrorInteractiveNoRecursion 交互模式只快照当前状态: 不重新导航,不递归链接
func TestMirrorInteractiveNoRecursion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img/avatar.png" {
			w.Write([]byte("png-bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	renderer := &fakeRenderer{
		pages: map[string]string{
			server.URL: `<html><body>
				<div class="logged-in">欢迎回来</div>
				<img src="/img/avatar.png">
				<a href="/about">关于</a>
			</body></html>`,
			server.URL + "/about": `<html><body>关于页面</body></html>`,
		},
	}

	config := testConfig()
	config.Interactive = true

	m, err := NewMirror(server.URL, config, t.TempDir(), renderer)
	if err != nil {
		t.Fatalf("创建镜像任务失败: %v", err)
	}

	var out strings.Builder
	m.SetInteractiveIO(strings.NewReader("done\n"), &out)

	if err := m.Run(); err != nil {
		t.Fatalf("交互模式Run失败: %v", err)
	}

	// 只有进入交互会话前的一次导航,done之后不能重新加载页面
	if len(renderer.navigated) != 1 {
		t.Errorf("导航次数 = %d (%v), 期望 1", len(renderer.navigated), renderer.navigated)
	}

	stats := m.Stats()
	if stats.VisitedPages != 1 {
		t.Errorf("VisitedPages = %d, 期望 1", stats.VisitedPages)
	}

	siteDir := m.SiteDir()

	// 当前页面的快照和资源落盘
	snapshot, err := os.ReadFile(filepath.Join(siteDir, "index.html"))
	if err != nil {
		t.Fatalf("当前页面快照应已保存: %v", err)
	}
	if !strings.Contains(string(snapshot), "logged-in") {
		t.Errorf("快照应保留用户操作后的DOM状态, 实际: %q", snapshot)
	}
	if _, err := os.Stat(filepath.Join(siteDir, "img", "avatar.png")); err != nil {
		t.Errorf("当前页面的资源应已落盘: %v", err)
	}

	// 页面内链接不递归
	if _, err := os.Stat(filepath.Join(siteDir, "about", "index.html")); err == nil {
		t.Error("交互模式不应递归镜像页面内链接")
	}
}
