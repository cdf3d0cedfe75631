package core

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/SiteMirror/internal/browser"
	"github.com/RecoveryAshes/SiteMirror/internal/mirror"
	"github.com/RecoveryAshes/SiteMirror/internal/models"
	"github.com/RecoveryAshes/SiteMirror/internal/utils"
)

// Mirror 镜像任务编排器
// 执行流程: 渲染页面 -> 保存快照 -> 提取资源 -> 并发下载 -> 提取链接 -> DFS递归
type Mirror struct {
	config    models.MirrorConfig
	targetURL string
	domain    string
	siteDir   string

	renderer   browser.Renderer
	frontier   *mirror.Frontier
	mapper     *mirror.PathMapper
	extractor  *mirror.Extractor
	downloader *mirror.Downloader
	monitor    *mirror.ResourceMonitor

	// 交互式会话的输入输出,默认标准输入输出
	interactiveIn  io.Reader
	interactiveOut io.Writer

	stats models.TaskStats
}

// NewMirror 创建镜像任务
// outputDir为输出根目录,站点内容落盘到 outputDir/<安全化域名>/ 下
func NewMirror(targetURL string, config models.MirrorConfig, outputDir string, renderer browser.Renderer) (*Mirror, error) {
	if err := models.ValidateURL(targetURL); err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("解析URL失败: %w", err)
	}
	domain := parsedURL.Host
	if domain == "" {
		return nil, fmt.Errorf("无法从URL中提取域名: %s", targetURL)
	}

	frontier, err := mirror.NewFrontier(targetURL)
	if err != nil {
		return nil, err
	}

	siteDir := filepath.Join(outputDir, mirror.SanitizeHost(domain))
	mapper := mirror.NewPathMapper(siteDir)

	// 资源监控器驱动下载并发的动态调整
	monitor := mirror.NewResourceMonitor(mirror.DefaultMonitorConfig(config.MaxDownloads))

	downloader := mirror.NewDownloader(mapper, domain, config.Headers, monitor, config.MaxDownloads)

	return &Mirror{
		config:         config,
		targetURL:      targetURL,
		domain:         domain,
		siteDir:        siteDir,
		renderer:       renderer,
		frontier:       frontier,
		mapper:         mapper,
		extractor:      mirror.NewExtractor(),
		downloader:     downloader,
		monitor:        monitor,
		interactiveIn:  os.Stdin,
		interactiveOut: os.Stdout,
	}, nil
}

// SiteDir 返回站点输出目录
func (m *Mirror) SiteDir() string {
	return m.siteDir
}

// SetInteractiveIO 替换交互式会话的输入输出流
func (m *Mirror) SetInteractiveIO(in io.Reader, out io.Writer) {
	m.interactiveIn = in
	m.interactiveOut = out
}

// Run 执行镜像任务
func (m *Mirror) Run() error {
	startTime := time.Now()

	utils.Infof("🚀 开始镜像任务")
	utils.Infof("目标URL: %s", m.targetURL)
	utils.Infof("域名: %s", m.domain)
	utils.Infof("输出目录: %s", m.siteDir)

	if err := os.MkdirAll(m.siteDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	m.monitor.StartMonitoring(1 * time.Second)
	defer m.monitor.StopMonitoring()

	// 交互模式: 先渲染首页,交给用户操作,done后直接镜像浏览器当前状态,
	// 不重新导航、不递归链接,镜像范围由用户决定
	if m.config.Interactive {
		if err := m.runInteractive(); err != nil {
			return err
		}
		if err := m.mirrorCurrentPage(); err != nil && !m.config.ContinueOnRenderError {
			return err
		}
	} else {
		if err := m.processPage(m.targetURL); err != nil && !m.config.ContinueOnRenderError {
			return err
		}
	}

	m.finishStats(startTime)
	m.generateReport()
	m.printSummary()

	return nil
}

// runInteractive 渲染首页并进入交互式会话
func (m *Mirror) runInteractive() error {
	utils.Infof("🌐 交互模式: 渲染首页 %s", m.targetURL)

	if err := m.renderer.Navigate(m.targetURL); err != nil {
		return fmt.Errorf("渲染首页失败: %w", err)
	}
	m.renderer.Sleep(time.Duration(m.config.WaitTime) * time.Second)

	session := browser.NewInteractiveSession(m.renderer, m.interactiveIn, m.interactiveOut)
	if err := session.Run(); err != nil {
		return fmt.Errorf("交互式会话失败: %w", err)
	}
	return nil
}

// mirrorCurrentPage 镜像浏览器当前状态的单个页面
// 不重新导航,用户操作产生的DOM状态(登录、点击展开的内容)原样保留
func (m *Mirror) mirrorCurrentPage() error {
	current, err := m.renderer.CurrentURL()
	if err != nil || current == "" {
		utils.Warnf("获取浏览器当前URL失败,使用目标URL: %v", err)
		current = m.targetURL
	}

	m.frontier.TryVisit(current)
	utils.Infof("📄 镜像当前页面: %s", current)

	// 等待用户操作触发的资源请求静默
	settleTimeout := time.Duration(m.config.SettleTimeout) * time.Second
	if err := m.renderer.WaitForSettle(settleTimeout); err != nil {
		utils.Warnf("等待资源安定失败 [%s]: %v", current, err)
	}

	snapshot, err := m.renderer.DocumentSnapshot()
	if err != nil {
		m.stats.FailedPages++
		return fmt.Errorf("获取页面快照失败 [%s]: %w", current, err)
	}
	m.stats.VisitedPages++

	return m.capturePage(current, snapshot)
}

// processPage 渲染并镜像单个页面,然后对同源链接做深度优先递归
func (m *Mirror) processPage(pageURL string) error {
	// 原子认领访问权,同一页面最多渲染一次
	if !m.frontier.TryVisit(pageURL) {
		return nil
	}

	utils.Infof("📄 处理页面: %s", pageURL)

	if err := m.renderPage(pageURL); err != nil {
		m.stats.FailedPages++
		if m.config.ContinueOnRenderError {
			utils.Warnf("页面渲染失败,跳过 [%s]: %v", pageURL, err)
			return nil
		}
		return fmt.Errorf("页面渲染失败 [%s]: %w", pageURL, err)
	}
	m.stats.VisitedPages++

	snapshot, err := m.renderer.DocumentSnapshot()
	if err != nil {
		m.stats.FailedPages++
		if m.config.ContinueOnRenderError {
			utils.Warnf("获取页面快照失败,跳过 [%s]: %v", pageURL, err)
			return nil
		}
		return fmt.Errorf("获取页面快照失败 [%s]: %w", pageURL, err)
	}

	if err := m.capturePage(pageURL, snapshot); err != nil {
		return err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("解析页面URL失败: %w", err)
	}

	// 提取页面链接,深度优先递归同源页面
	links, err := m.extractor.ExtractLinks(snapshot, base)
	if err != nil {
		utils.Warnf("提取链接失败 [%s]: %v", pageURL, err)
		return nil
	}

	for _, link := range links {
		if !m.frontier.ShouldEnqueue(link) {
			continue
		}
		if err := m.processPage(link); err != nil {
			return err
		}
	}

	return nil
}

// capturePage 保存页面快照并下载其引用的全部资源
func (m *Mirror) capturePage(pageURL string, snapshot string) error {
	base, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("解析页面URL失败: %w", err)
	}

	// 保存页面快照
	pagePath, err := m.mapper.MapPage(pageURL)
	if err != nil {
		return fmt.Errorf("生成页面路径失败: %w", err)
	}
	if err := os.WriteFile(pagePath, []byte(snapshot), 0644); err != nil {
		return fmt.Errorf("写入页面快照失败: %w", err)
	}
	m.stats.PageFiles++
	utils.Infof("📄 页面已保存: %s", pagePath)

	// 结构化+启发式+脚本文本分析提取资源
	resources, err := m.extractor.Extract(snapshot, base, m.downloader.FetchText)
	if err != nil {
		utils.Warnf("提取资源失败 [%s]: %v", pageURL, err)
		resources = nil
	}

	// 合并浏览器网络日志中的资源(动态插入、文本分析不可达的请求)
	resources = m.mergeNetworkResources(resources)

	utils.Infof("🔍 发现 %d 个资源", len(resources))
	m.downloader.FetchAll(resources)
	return nil
}

// renderPage 导航到页面并等待动态资源安定
func (m *Mirror) renderPage(pageURL string) error {
	if err := m.renderer.Navigate(pageURL); err != nil {
		return err
	}

	// 固定等待之后再等待资源请求静默
	m.renderer.Sleep(time.Duration(m.config.WaitTime) * time.Second)

	settleTimeout := time.Duration(m.config.SettleTimeout) * time.Second
	if err := m.renderer.WaitForSettle(settleTimeout); err != nil {
		// 安定等待失败不阻塞镜像,快照仍然可用
		utils.Warnf("等待资源安定失败 [%s]: %v", pageURL, err)
	}

	return nil
}

// mergeNetworkResources 将浏览器实际请求过的资源合并进提取结果
func (m *Mirror) mergeNetworkResources(resources []models.Resource) []models.Resource {
	networkURLs, err := m.renderer.NetworkResources()
	if err != nil {
		utils.Warnf("读取网络资源日志失败: %v", err)
		return resources
	}

	seen := make(map[string]bool, len(resources))
	for _, res := range resources {
		seen[res.URL] = true
	}

	for _, u := range networkURLs {
		if seen[u] {
			continue
		}
		if strings.HasPrefix(u, "data:") || strings.HasPrefix(u, "blob:") || strings.HasPrefix(u, "javascript:") {
			continue
		}
		seen[u] = true
		resources = append(resources, models.NewResource(u))
	}

	return resources
}

// finishStats 合并下载统计并计算总耗时
func (m *Mirror) finishStats(startTime time.Time) {
	downloadStats := m.downloader.Stats()
	m.stats.ResourceFiles = downloadStats.ResourceFiles
	m.stats.ExternalResources = downloadStats.ExternalResources
	m.stats.SkippedResources = downloadStats.SkippedResources
	m.stats.FailedResources = downloadStats.FailedResources
	m.stats.DuplicateResources = downloadStats.DuplicateResources
	m.stats.TotalSize = downloadStats.TotalSize
	m.stats.Duration = time.Since(startTime).Seconds()
}

// generateReport 生成镜像报告
func (m *Mirror) generateReport() {
	reporter := utils.NewReporter(m.siteDir, m.domain)
	err := reporter.GenerateReport(
		m.targetURL,
		m.stats,
		m.downloader.Files(),
		m.downloader.FailedFiles(),
		m.frontier.VisitedURLs(),
		m.config,
	)
	if err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}
}

// printSummary 输出任务摘要
func (m *Mirror) printSummary() {
	utils.Infof("✅ 镜像任务完成")
	utils.Infof("访问页面数: %d", m.stats.VisitedPages)
	utils.Infof("页面快照数: %d", m.stats.PageFiles)
	utils.Infof("资源文件数: %d", m.stats.ResourceFiles)
	utils.Infof("外域资源数: %d", m.stats.ExternalResources)
	utils.Infof("失败资源数: %d", m.stats.FailedResources)
	if m.stats.FailedPages > 0 {
		utils.Infof("失败页面数: %d", m.stats.FailedPages)
	}
	utils.Infof("落盘总大小: %d bytes", m.stats.TotalSize)
	utils.Infof("总耗时: %.2f秒", m.stats.Duration)
}

// Stats 获取任务统计
func (m *Mirror) Stats() models.TaskStats {
	return m.stats
}
