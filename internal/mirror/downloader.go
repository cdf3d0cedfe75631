package mirror

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/SiteMirror/internal/models"
	"github.com/RecoveryAshes/SiteMirror/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/schollz/progressbar/v3"
)

// Downloader 资源下载管理器(使用Colly)
// 职责: 并发下载已发现的资源并按URL路径落盘
// 去重发生在入队时刻: 对claimed集合的检查+标记是单次原子操作,
// 每个资源URL在整个任务中最多发起一次下载,失败也不重新认领
type Downloader struct {
	collector *colly.Collector

	mapper     *PathMapper
	originHost string
	headers    map[string]string

	// 资源监控器,用于动态调整并发
	resourceMonitor *ResourceMonitor

	// 已认领URL集合(入队即认领)
	claimed map[string]bool

	// 文件记录
	files      map[string]*models.FileInfo // URL -> FileInfo
	failed     []models.FailedFileInfo
	fileHashes map[string]string // hash -> URL,用于内容级重复统计
	mu         sync.RWMutex

	// 当前页面的进度条
	bar *progressbar.ProgressBar

	// 统计
	stats models.TaskStats
}

// NewDownloader 创建下载管理器
func NewDownloader(mapper *PathMapper, originHost string, headers map[string]string, monitor *ResourceMonitor, maxDownloads int) *Downloader {
	// 自定义HTTP客户端: 跳过证书验证,允许访问自签名或过期证书的站点
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: 30 * time.Second,
	}

	c := colly.NewCollector(
		colly.Async(true),
	)
	c.SetClient(httpClient)
	c.SetRequestTimeout(30 * time.Second)

	if maxDownloads < 1 {
		maxDownloads = 1
	}

	// 配置并发限制,无延迟
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: maxDownloads,
		Delay:       0,
	}); err != nil {
		utils.Warnf("设置并发限制失败: %v", err)
	}

	d := &Downloader{
		collector:       c,
		mapper:          mapper,
		originHost:      originHost,
		headers:         headers,
		resourceMonitor: monitor,
		claimed:         make(map[string]bool),
		files:           make(map[string]*models.FileInfo),
		failed:          make([]models.FailedFileInfo, 0),
		fileHashes:      make(map[string]string),
	}

	d.setupCallbacks()
	return d
}

// setupCallbacks 设置Colly回调
func (d *Downloader) setupCallbacks() {
	d.collector.OnRequest(func(r *colly.Request) {
		// 应用自定义HTTP头部
		for name, value := range d.headers {
			r.Headers.Set(name, value)
		}

		utils.Debugf("下载: %s", r.URL.String())

		// 动态调整并发数(基于资源限制)
		d.adjustConcurrency()
	})

	d.collector.OnResponse(func(r *colly.Response) {
		requestURL := r.Request.URL.String()

		// 解压响应体(如果有压缩)
		body := r.Body
		if contentEncoding := r.Headers.Get("Content-Encoding"); contentEncoding != "" {
			decompressed, err := decompressResponse(contentEncoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", requestURL, contentEncoding, err)
				// 解压失败,仍然使用原始body
			} else {
				body = decompressed
			}
		}

		if err := d.saveResource(requestURL, body); err != nil {
			utils.Warnf("保存资源失败 [%s]: %v", requestURL, err)
			d.recordFailure(requestURL, err.Error())
		}

		d.advanceProgress()
	})

	d.collector.OnError(func(r *colly.Response, err error) {
		requestURL := r.Request.URL.String()
		if r.StatusCode > 0 {
			// 服务端有响应但状态非2xx,不算传输层故障
			utils.Warnf("下载失败 [%s] (状态码=%d): %v", requestURL, r.StatusCode, err)
		} else {
			utils.Errorf("下载失败 [%s]: %v", requestURL, err)
		}
		d.recordFailure(requestURL, err.Error())
		d.advanceProgress()
	})
}

// FetchAll 下载一个页面发现的全部资源并等待完成
// 入队时按claimed集合去重,同一URL跨页面只下载一次
func (d *Downloader) FetchAll(resources []models.Resource) {
	pending := make([]models.Resource, 0, len(resources))

	for _, res := range resources {
		parsed, err := url.Parse(res.URL)
		if err != nil {
			continue
		}

		// 仅镜像同源资源,外部资源记入统计后跳过
		if parsed.Host != d.originHost {
			d.mu.Lock()
			if !d.claimed[res.URL] {
				d.claimed[res.URL] = true
				d.stats.ExternalResources++
			}
			d.mu.Unlock()
			utils.Debugf("跳过外部资源: %s", res.URL)
			continue
		}

		// 原子认领: 检查+标记在同一临界区内完成
		d.mu.Lock()
		if d.claimed[res.URL] {
			d.stats.SkippedResources++
			d.mu.Unlock()
			utils.Debugf("资源已认领,跳过: %s", res.URL)
			continue
		}
		d.claimed[res.URL] = true
		d.mu.Unlock()

		pending = append(pending, res)
	}

	if len(pending) == 0 {
		return
	}

	d.mu.Lock()
	d.bar = utils.NewProgressBar(len(pending), "📥 下载资源")
	d.mu.Unlock()

	for _, res := range pending {
		if err := d.collector.Visit(res.URL); err != nil {
			utils.Warnf("发起下载失败 [%s]: %v", res.URL, err)
			d.recordFailure(res.URL, err.Error())
			d.advanceProgress()
		}
	}

	d.collector.Wait()

	d.mu.Lock()
	if d.bar != nil {
		_ = d.bar.Finish()
		d.bar = nil
	}
	d.mu.Unlock()
}

// saveResource 将资源内容写入磁盘并登记文件信息
func (d *Downloader) saveResource(fileURL string, content []byte) error {
	filePath, err := d.mapper.MapResource(fileURL)
	if err != nil {
		return fmt.Errorf("生成文件路径失败: %w", err)
	}

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}

	hash := calculateHash(content)
	kind := models.ClassifyResource(fileURL)

	d.mu.Lock()
	defer d.mu.Unlock()

	// 内容级重复仅计入统计,文件照常保留,保证镜像路径完整
	if existingURL, exists := d.fileHashes[hash]; exists {
		utils.Debugf("发现重复内容(哈希相同): %s (与 %s 相同)", fileURL, existingURL)
		d.stats.DuplicateResources++
	} else {
		d.fileHashes[hash] = fileURL
	}

	d.files[fileURL] = &models.FileInfo{
		URL:          fileURL,
		FilePath:     filePath,
		Size:         int64(len(content)),
		Hash:         hash,
		Kind:         kind,
		DownloadedAt: time.Now(),
	}
	d.stats.ResourceFiles++
	d.stats.TotalSize += int64(len(content))

	utils.Infof("📥 下载成功: %s (%d bytes) - %s", filepath.Base(filePath), len(content), fileURL)
	return nil
}

// recordFailure 登记下载失败的资源
func (d *Downloader) recordFailure(fileURL string, errMsg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.failed = append(d.failed, models.FailedFileInfo{
		URL:      fileURL,
		ErrorMsg: errMsg,
	})
	d.stats.FailedResources++
}

// advanceProgress 推进当前页面的进度条
func (d *Downloader) advanceProgress() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bar != nil {
		_ = d.bar.Add(1)
	}
}

// adjustConcurrency 动态调整并发数(基于资源监控)
func (d *Downloader) adjustConcurrency() {
	if d.resourceMonitor == nil {
		return
	}

	maxDownloads := d.resourceMonitor.CalculateMaxDownloads()
	if err := d.collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: maxDownloads,
		Delay:       0,
	}); err != nil {
		utils.Warnf("更新并发限制失败: %v", err)
		return
	}

	utils.Debugf("下载并发调整: 当前上限=%d", maxDownloads)
}

// FetchText 抓取脚本或样式表文本用于分析,不落盘、不参与去重
func (d *Downloader) FetchText(rawURL string) (string, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
	}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("构造请求失败: %w", err)
	}
	for name, value := range d.headers {
		req.Header.Set(name, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if contentEncoding := resp.Header.Get("Content-Encoding"); contentEncoding != "" {
		if decompressed, derr := decompressResponse(contentEncoding, body); derr == nil {
			body = decompressed
		}
	}

	return string(body), nil
}

// Stats 获取下载统计
func (d *Downloader) Stats() models.TaskStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// Files 获取全部下载成功的文件记录
func (d *Downloader) Files() []models.FileInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	files := make([]models.FileInfo, 0, len(d.files))
	for _, f := range d.files {
		files = append(files, *f)
	}
	return files
}

// FailedFiles 获取全部下载失败的记录
func (d *Downloader) FailedFiles() []models.FailedFileInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.FailedFileInfo, len(d.failed))
	copy(out, d.failed)
	return out
}

// calculateHash 计算SHA-256哈希
func calculateHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
