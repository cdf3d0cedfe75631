package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/SiteMirror/internal/models"
)

// ValidateFlags 验证命令行标志与合并后的镜像配置
func ValidateFlags(targetURL string, config models.MirrorConfig) error {
	if targetURL != "" {
		normalized, err := NormalizeURL(targetURL)
		if err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
		if err := models.ValidateURL(normalized); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return err
	}

	return nil
}

// ParseHeaderFlags 解析 -H 'Name: Value' 形式的头部参数
func ParseHeaderFlags(headers []string) (map[string]string, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	parsed := make(map[string]string, len(headers))
	for _, h := range headers {
		idx := strings.Index(h, ":")
		if idx <= 0 {
			return nil, fmt.Errorf("无效的头部格式: %q (应为 'Name: Value')", h)
		}

		name := strings.TrimSpace(h[:idx])
		value := strings.TrimSpace(h[idx+1:])
		if name == "" {
			return nil, fmt.Errorf("无效的头部格式: %q (头部名不能为空)", h)
		}
		parsed[name] = value
	}

	return parsed, nil
}

// NormalizeURL 规范化URL,没有协议时默认使用https
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
