package models

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}

// NewRunID 为一次镜像运行生成唯一ID
func NewRunID() string {
	return generateID()
}

// ValidateURL 验证URL格式
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL缺少协议(http/https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL协议必须是http或https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL缺少主机名")
	}

	return nil
}
