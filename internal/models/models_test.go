package models

import "testing"

// TestClassifyResource 测试资源类型推断
func TestClassifyResource(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected ResourceKind
	}{
		{
			name:     "JS脚本",
			url:      "https://example.com/js/app.js",
			expected: KindScript,
		},
		{
			name:     "带查询串的JS脚本",
			url:      "https://example.com/js/app.js?v=1.2",
			expected: KindScript,
		},
		{
			name:     "样式表",
			url:      "https://example.com/css/main.css",
			expected: KindStyle,
		},
		{
			name:     "图片",
			url:      "https://example.com/img/logo.PNG",
			expected: KindMedia,
		},
		{
			name:     "音频",
			url:      "https://example.com/audio/theme.mp3",
			expected: KindMedia,
		},
		{
			name:     "3D模型",
			url:      "https://example.com/models/robot.glb",
			expected: KindModel,
		},
		{
			name:     "纹理资产",
			url:      "https://example.com/textures/wall.basis",
			expected: KindModel,
		},
		{
			name:     "无扩展名",
			url:      "https://example.com/api/data",
			expected: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyResource(tt.url)
			if result != tt.expected {
				t.Errorf("ClassifyResource(%q) = %q, 期望 %q", tt.url, result, tt.expected)
			}
		})
	}
}

// TestNewResource 资源记录携带唯一ID和类型
func TestNewResource(t *testing.T) {
	first := NewResource("https://example.com/js/app.js")
	second := NewResource("https://example.com/js/app.js")

	if first.ID == "" || second.ID == "" {
		t.Error("资源ID不应为空")
	}
	if first.ID == second.ID {
		t.Error("两条资源记录的ID不应相同")
	}
	if first.Kind != KindScript {
		t.Errorf("Kind = %q, 期望 %q", first.Kind, KindScript)
	}
}

// TestValidateURL 测试URL验证
func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "合法的https URL",
			url:     "https://example.com/page",
			wantErr: false,
		},
		{
			name:    "合法的http URL",
			url:     "http://example.com",
			wantErr: false,
		},
		{
			name:    "缺少协议",
			url:     "example.com",
			wantErr: true,
		},
		{
			name:    "不支持的协议",
			url:     "ftp://example.com/file",
			wantErr: true,
		},
		{
			name:    "缺少主机名",
			url:     "https://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) 错误 = %v, wantErr = %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

// TestMirrorConfigValidate 测试镜像配置验证
func TestMirrorConfigValidate(t *testing.T) {
	valid := MirrorConfig{
		WaitTime:      2,
		SettleTimeout: 10,
		MaxDownloads:  8,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("合法配置不应报错: %v", err)
	}

	tests := []struct {
		name   string
		modify func(c *MirrorConfig)
	}{
		{
			name:   "等待时间超出上限",
			modify: func(c *MirrorConfig) { c.WaitTime = 120 },
		},
		{
			name:   "安定等待为0",
			modify: func(c *MirrorConfig) { c.SettleTimeout = 0 },
		},
		{
			name:   "并发下载数为0",
			modify: func(c *MirrorConfig) { c.MaxDownloads = 0 },
		},
		{
			name:   "并发下载数超出上限",
			modify: func(c *MirrorConfig) { c.MaxDownloads = 128 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.modify(&config)
			if err := config.Validate(); err == nil {
				t.Error("非法配置应报错")
			}
		})
	}
}
