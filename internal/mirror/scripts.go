package mirror

import (
	"net/url"
	"regexp"
	"strings"
)

// excludedSchemes 不参与解析的URL前缀
// 以这些前缀开头的匹配在解析前被拒绝
var excludedSchemes = []string{"http://", "https://", "data:", "blob:", "javascript:"}

// scriptPattern 一条脚本资源引用的匹配规则
// 规则集是数据而不是控制流: 每条规则独立产生候选串,统一经过同一个规范化+解析步骤
type scriptPattern struct {
	name string
	re   *regexp.Regexp
}

// scriptPatterns 脚本文本中常见资源引用写法的固定规则集,按序应用
var scriptPatterns = []scriptPattern{
	{"assign_key", regexp.MustCompile(`(?:src|href|url):\s*['"]([^'"\s]+)['"]`)},
	{"loader_call", regexp.MustCompile(`(?:load|fetch|import)\s*\(['"]([^'"\s]+)['"]`)},
	{"media_ctor", regexp.MustCompile(`new\s+(?:Image|Audio)\(['"]([^'"\s]+)['"]`)},
	{"dot_load", regexp.MustCompile(`\.load\s*\(['"]([^'"\s]+)['"]`)},
	{"load_texture", regexp.MustCompile(`\.loadTexture\s*\(['"]([^'"\s]+)['"]`)},
	{"set_path", regexp.MustCompile(`\.setPath\s*\(['"]([^'"\s]+)['"]`)},
	{"backtick_media", regexp.MustCompile("`([^`]+?\\.(?:mp3|wav|ogg|glb|gltf|jpg|png))`")},
	{"path_join", regexp.MustCompile(`\.join\s*\(['"]([^'"\s]+)['"]`)},
	{"path_resolve", regexp.MustCompile(`\.resolve\s*\(['"]([^'"\s]+)['"]`)},
	{"abs_literal", regexp.MustCompile(`['"](/[^'"\s]+\.(?:js|css|png|jpg|jpeg|gif|svg|mp3|wav|json|wasm|glb|gltf|bin|basis|ktx2|drc|ico))['"]`)},
}

// importPattern import()/require()调用,独立于规则集处理
var importPattern = regexp.MustCompile(`(?:import|require)\s*\(\s*['"]([^'"\s]+)['"]`)

// 字面量变量绑定: const x = "value"
var varAssignPattern = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*['"]([^'"\s]+)['"]`)

// 对象字面量绑定: const paths = { base: "/assets", ... }
var objAssignPattern = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*\{([^}]+)\}`)
var objPairPattern = regexp.MustCompile(`(\w+):\s*['"]([^'"\s]+)['"]`)

// hasExcludedScheme 判断候选串是否以被排除的前缀开头
func hasExcludedScheme(s string) bool {
	for _, prefix := range excludedSchemes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// collectPathVariables 提取脚本中的字符串字面量变量绑定
// 包括简单变量赋值和对象属性赋值(记为 obj.key)
// 该表仅在单个脚本的分析过程中有效,用于尽力解析动态拼接的路径
func collectPathVariables(script string) map[string]string {
	pathVars := make(map[string]string)

	for _, match := range varAssignPattern.FindAllStringSubmatch(script, -1) {
		pathVars[match[1]] = match[2]
	}

	for _, match := range objAssignPattern.FindAllStringSubmatch(script, -1) {
		objName := match[1]
		for _, pair := range objPairPattern.FindAllStringSubmatch(match[2], -1) {
			pathVars[objName+"."+pair[1]] = pair[2]
		}
	}

	return pathVars
}

// normalizeCandidate 对规则产出的候选串做统一规范化
// 去除引号包裹和前导./,再用变量表做子串替换
// 返回空串表示候选被拒绝
func normalizeCandidate(candidate string, pathVars map[string]string) string {
	if candidate == "" || hasExcludedScheme(candidate) {
		return ""
	}

	candidate = strings.Trim(candidate, "'\"`")
	candidate = strings.TrimPrefix(candidate, "./")

	// 尽力替换: 变量名作为子串出现即替换,不是通用求值器
	for name, value := range pathVars {
		if strings.Contains(candidate, name) {
			candidate = strings.ReplaceAll(candidate, name, value)
		}
	}

	return candidate
}

// AnalyzeScript 对脚本文本应用规则集,提取资源URL
// 应用于内联脚本体和外部脚本抓取到的文本,结果已按base解析为绝对URL
func AnalyzeScript(script string, base *url.URL) []string {
	pathVars := collectPathVariables(script)

	seen := make(map[string]bool)
	resources := make([]string, 0)

	add := func(candidate string) {
		resolved, err := base.Parse(candidate)
		if err != nil {
			return
		}
		abs := resolved.String()
		if !seen[abs] {
			seen[abs] = true
			resources = append(resources, abs)
		}
	}

	for _, pattern := range scriptPatterns {
		for _, match := range pattern.re.FindAllStringSubmatch(script, -1) {
			candidate := normalizeCandidate(match[1], pathVars)
			if candidate != "" {
				add(candidate)
			}
		}
	}

	// import()/require()调用,仅做前缀排除,不做变量替换
	for _, match := range importPattern.FindAllStringSubmatch(script, -1) {
		if !hasExcludedScheme(match[1]) {
			add(match[1])
		}
	}

	return resources
}

// CSS资源引用规则: url(...) 和 @import
var (
	cssURLPattern    = regexp.MustCompile(`url\(['"]?([^'")]+)['"]?\)`)
	cssImportPattern = regexp.MustCompile(`@import\s+['"]([^'"\s]+)['"]`)
)

// AnalyzeStylesheet 从样式表文本中提取url()和@import引用
// 应用于内联<style>内容和外部样式表抓取到的文本
func AnalyzeStylesheet(css string, base *url.URL) []string {
	seen := make(map[string]bool)
	resources := make([]string, 0)

	for _, pattern := range []*regexp.Regexp{cssURLPattern, cssImportPattern} {
		for _, match := range pattern.FindAllStringSubmatch(css, -1) {
			candidate := strings.TrimSpace(match[1])
			if candidate == "" || hasExcludedScheme(candidate) {
				continue
			}

			resolved, err := base.Parse(candidate)
			if err != nil {
				continue
			}
			abs := resolved.String()
			if !seen[abs] {
				seen[abs] = true
				resources = append(resources, abs)
			}
		}
	}

	return resources
}
