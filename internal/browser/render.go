package browser

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/SiteMirror/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Renderer 页面渲染器
// 爬取编排器通过该接口驱动浏览器,不直接依赖具体浏览器实现
type Renderer interface {
	// Navigate 导航到目标URL并等待基础加载完成
	Navigate(pageURL string) error
	// DocumentSnapshot 返回当前DOM序列化后的HTML文本
	DocumentSnapshot() (string, error)
	// NetworkResources 返回页面加载以来浏览器实际请求过的资源URL列表
	NetworkResources() ([]string, error)
	// WaitForSettle 等待页面资源请求静默,超时后正常返回
	WaitForSettle(timeout time.Duration) error
	// CurrentURL 返回浏览器当前所在的URL(交互后可能与导航目标不同)
	CurrentURL() (string, error)
	// Reload 刷新当前页面
	Reload() error
	// Sleep 在浏览器会话保持打开的情况下等待
	Sleep(d time.Duration)
	// Close 关闭浏览器会话
	Close()
}

// RodRenderer 基于Rod的页面渲染器
// 单浏览器单标签页: 镜像任务按DFS顺序逐页渲染,不需要标签页池
type RodRenderer struct {
	browser *rod.Browser
	page    *rod.Page
	headers map[string]string
}

// NewRodRenderer 启动浏览器并创建渲染器
func NewRodRenderer(headless bool, headers map[string]string) (*RodRenderer, error) {
	l := launcher.New().Headless(headless)

	// 证书忽略参数,允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}
	utils.Debugf("浏览器已启动: %s", controlURL)

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		b.MustClose()
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}

	r := &RodRenderer{
		browser: b,
		page:    page,
		headers: headers,
	}

	if len(headers) > 0 {
		r.setupRequestHeaders()
	}

	return r, nil
}

// setupRequestHeaders 通过请求拦截注入自定义HTTP头部
func (r *RodRenderer) setupRequestHeaders() {
	router := r.page.HijackRequests()

	router.MustAdd("*", func(ctx *rod.Hijack) {
		for name, value := range r.headers {
			ctx.Request.Req().Header.Set(name, value)
		}
		// 不拦截请求本身,让浏览器继续处理
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()
}

// Navigate 导航到目标URL并等待load事件
func (r *RodRenderer) Navigate(pageURL string) error {
	if err := r.page.Navigate(pageURL); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	if err := r.page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}
	return nil
}

// DocumentSnapshot 返回渲染后的DOM快照
func (r *RodRenderer) DocumentSnapshot() (string, error) {
	html, err := r.page.HTML()
	if err != nil {
		return "", fmt.Errorf("获取页面HTML失败: %w", err)
	}
	return html, nil
}

// NetworkResources 通过Performance API读取浏览器实际请求过的资源URL
// 覆盖动态插入的资源和无法通过文本分析发现的请求
func (r *RodRenderer) NetworkResources() ([]string, error) {
	result, err := r.page.Evaluate(&rod.EvalOptions{
		ByValue: true,
		JS: `() => {
			var entries = performance.getEntriesByType('resource');
			var urls = [];
			var seen = {};
			for (var i = 0; i < entries.length; i++) {
				var name = entries[i].name;
				if (name && !seen[name]) {
					seen[name] = true;
					urls.push(name);
				}
			}
			return urls;
		}`,
	})
	if err != nil {
		return nil, fmt.Errorf("读取网络资源列表失败: %w", err)
	}

	urls := []string{}
	if result.Value.Arr() != nil {
		for _, item := range result.Value.Arr() {
			if item.Str() != "" {
				urls = append(urls, item.Str())
			}
		}
	}
	return urls, nil
}

// WaitForSettle 轮询资源请求数直到静默
// 静默判定: 资源数在1秒内无增长; 总等待时间以timeout为上限
// 超时不是错误,页面持续轮询的资源请求永远不会静默
func (r *RodRenderer) WaitForSettle(timeout time.Duration) error {
	_, err := r.page.Evaluate(&rod.EvalOptions{
		ByValue:      true,
		AwaitPromise: true,
		JS: `(timeoutMs) => new Promise(function(resolve) {
			var last = performance.getEntriesByType('resource').length;
			var stableSince = Date.now();
			var start = Date.now();
			var timer = setInterval(function() {
				var count = performance.getEntriesByType('resource').length;
				if (count !== last) {
					last = count;
					stableSince = Date.now();
				}
				if (Date.now() - stableSince > 1000 || Date.now() - start > timeoutMs) {
					clearInterval(timer);
					resolve(count);
				}
			}, 200);
		})`,
		JSArgs: []interface{}{timeout.Milliseconds()},
	})
	if err != nil {
		return fmt.Errorf("等待资源静默失败: %w", err)
	}
	return nil
}

// CurrentURL 返回浏览器当前所在的URL
func (r *RodRenderer) CurrentURL() (string, error) {
	info, err := r.page.Info()
	if err != nil {
		return "", fmt.Errorf("获取页面信息失败: %w", err)
	}
	return info.URL, nil
}

// Reload 刷新当前页面并等待加载完成
func (r *RodRenderer) Reload() error {
	if err := r.page.Reload(); err != nil {
		return fmt.Errorf("刷新页面失败: %w", err)
	}
	if err := r.page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}
	return nil
}

// Sleep 保持浏览器会话等待指定时长
func (r *RodRenderer) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Close 关闭浏览器
func (r *RodRenderer) Close() {
	if r.browser != nil {
		r.browser.MustClose()
		utils.Debugf("浏览器已关闭")
	}
}
