package mirror

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/SiteMirror/internal/models"
	"github.com/RecoveryAshes/SiteMirror/internal/utils"
	"golang.org/x/net/html"
)

// FetchTextFunc 获取同文档外部脚本/样式表文本的能力,由调用方提供
// 抓取失败时该来源被跳过,提取继续处理其余来源
type FetchTextFunc func(rawURL string) (string, error)

// heuristicExtensions 启发式属性扫描的目标扩展名
// 任何属性值中出现这些扩展名都会被加入资源集,用于捕获框架自定义属性
var heuristicExtensions = []string{".glb", ".gltf", ".bin", ".jpg", ".png", ".basis"}

// metaMediaKeywords meta标签媒体相关关键字
var metaMediaKeywords = []string{"image", "video", "audio", "model"}

// mediaTags 常规资源承载标签及其属性
var (
	mediaTags       = map[string]bool{"img": true, "video": true, "audio": true, "source": true, "model-viewer": true, "canvas": true}
	mediaAttributes = []string{"src", "data-src", "srcset", "href", "data-model", "data-texture"}
)

// Extractor 资源提取器
// 对渲染后的文档快照应用全部发现规则(结构化属性、启发式扫描、
// meta标签、脚本文本分析、样式表分析),产出去重后的资源集
type Extractor struct{}

// NewExtractor 创建资源提取器
func NewExtractor() *Extractor {
	return &Extractor{}
}

// resourceSet 保持发现顺序的URL去重集合
type resourceSet struct {
	seen map[string]bool
	urls []string
	base *url.URL
}

func newResourceSet(base *url.URL) *resourceSet {
	return &resourceSet{
		seen: make(map[string]bool),
		base: base,
	}
}

// add 解析候选串为绝对URL并加入集合
// data:/blob:/javascript:前缀的候选被拒绝
func (s *resourceSet) add(candidate string) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return
	}
	for _, prefix := range []string{"data:", "blob:", "javascript:"} {
		if strings.HasPrefix(candidate, prefix) {
			return
		}
	}

	resolved, err := s.base.Parse(candidate)
	if err != nil {
		return
	}
	abs := resolved.String()
	if !s.seen[abs] {
		s.seen[abs] = true
		s.urls = append(s.urls, abs)
	}
}

// addAll 加入一组已解析的绝对URL
func (s *resourceSet) addAll(urls []string) {
	for _, u := range urls {
		if !s.seen[u] {
			s.seen[u] = true
			s.urls = append(s.urls, u)
		}
	}
}

// Extract 从文档快照中提取全部可达资源
// fetchText为nil时跳过外部脚本/样式表的文本分析
func (e *Extractor) Extract(snapshot string, base *url.URL, fetchText FetchTextFunc) ([]models.Resource, error) {
	doc, err := html.Parse(strings.NewReader(snapshot))
	if err != nil {
		return nil, fmt.Errorf("解析文档快照失败: %w", err)
	}

	set := newResourceSet(base)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script":
				e.handleScript(n, base, set, fetchText)
			case "link":
				e.handleStylesheetLink(n, base, set, fetchText)
			case "style":
				set.addAll(AnalyzeStylesheet(textContent(n), base))
			case "meta":
				e.handleMeta(n, set)
			default:
				if mediaTags[n.Data] {
					e.handleMediaElement(n, set)
				}
			}

			// 启发式属性扫描: 任意属性值中出现已知二进制/模型/纹理扩展名即加入
			// 含空白的值是srcset之类的复合属性,由专门的处理逻辑负责
			for _, attr := range n.Attr {
				if containsHeuristicExtension(attr.Val) && !strings.ContainsAny(attr.Val, " \t\n,") {
					set.add(attr.Val)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	resources := make([]models.Resource, 0, len(set.urls))
	for _, u := range set.urls {
		resources = append(resources, models.NewResource(u))
	}
	return resources, nil
}

// handleScript 处理script标签: 外部脚本加入资源集并抓取文本分析,内联脚本直接分析
func (e *Extractor) handleScript(n *html.Node, base *url.URL, set *resourceSet, fetchText FetchTextFunc) {
	src := attrValue(n, "src")
	if src != "" {
		set.add(src)

		if fetchText != nil && !strings.HasPrefix(src, "data:") && !strings.HasPrefix(src, "blob:") {
			if resolved, err := base.Parse(src); err == nil {
				text, err := fetchText(resolved.String())
				if err != nil {
					utils.Errorf("分析脚本失败 [%s]: %v", resolved.String(), err)
					return
				}
				set.addAll(AnalyzeScript(text, base))
			}
		}
		return
	}

	if body := textContent(n); body != "" {
		set.addAll(AnalyzeScript(body, base))
	}
}

// handleStylesheetLink 处理样式表link标签: 加入资源集并抓取文本分析
func (e *Extractor) handleStylesheetLink(n *html.Node, base *url.URL, set *resourceSet, fetchText FetchTextFunc) {
	rel := strings.ToLower(attrValue(n, "rel"))
	href := attrValue(n, "href")
	if !strings.Contains(rel, "stylesheet") || href == "" {
		return
	}

	set.add(href)

	if fetchText != nil {
		if resolved, err := base.Parse(href); err == nil {
			text, err := fetchText(resolved.String())
			if err != nil {
				utils.Errorf("分析样式表失败 [%s]: %v", resolved.String(), err)
				return
			}
			set.addAll(AnalyzeStylesheet(text, base))
		}
	}
}

// handleMediaElement 处理常规媒体标签的资源属性
// srcset按逗号拆分,每项取第一个空白分隔的token
func (e *Extractor) handleMediaElement(n *html.Node, set *resourceSet) {
	for _, name := range mediaAttributes {
		value := attrValue(n, name)
		if value == "" {
			continue
		}

		if name == "srcset" {
			for _, entry := range strings.Split(value, ",") {
				fields := strings.Fields(entry)
				if len(fields) > 0 {
					set.add(fields[0])
				}
			}
			continue
		}

		set.add(value)
	}
}

// handleMeta 处理meta标签
// content以/或协议开头,且标签中出现媒体相关关键字时加入
func (e *Extractor) handleMeta(n *html.Node, set *resourceSet) {
	content := attrValue(n, "content")
	if content == "" {
		return
	}
	if !strings.HasPrefix(content, "/") && !strings.HasPrefix(content, "http") {
		return
	}

	// 关键字在整个标签文本(属性名+属性值)中查找
	var tagText strings.Builder
	for _, attr := range n.Attr {
		tagText.WriteString(attr.Key)
		tagText.WriteString("=")
		tagText.WriteString(attr.Val)
		tagText.WriteString(" ")
	}
	blob := strings.ToLower(tagText.String())

	for _, keyword := range metaMediaKeywords {
		if strings.Contains(blob, keyword) {
			set.add(content)
			return
		}
	}
}

// ExtractLinks 按文档顺序提取a[href]链接并解析为绝对URL
func (e *Extractor) ExtractLinks(snapshot string, base *url.URL) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(snapshot))
	if err != nil {
		return nil, fmt.Errorf("解析文档快照失败: %w", err)
	}

	seen := make(map[string]bool)
	links := make([]string, 0)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attrValue(n, "href"); href != "" {
				if resolved, err := base.Parse(href); err == nil {
					abs := resolved.String()
					if !seen[abs] {
						seen[abs] = true
						links = append(links, abs)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// attrValue 返回节点指定属性的值,不存在时返回空串
func attrValue(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// textContent 拼接节点的全部文本子节点
func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// containsHeuristicExtension 判断属性值是否包含已知资产扩展名
func containsHeuristicExtension(value string) bool {
	lower := strings.ToLower(value)
	for _, ext := range heuristicExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
