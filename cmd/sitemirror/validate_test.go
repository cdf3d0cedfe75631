package main

import "testing"

// TestNormalizeURL 测试URL规范化
func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "完整URL保持不变",
			input:    "https://example.com/page",
			expected: "https://example.com/page",
		},
		{
			name:     "缺少协议时补全https",
			input:    "example.com",
			expected: "https://example.com",
		},
		{
			name:     "http协议保持不变",
			input:    "http://example.com",
			expected: "http://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) 失败: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, 期望 %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestParseHeaderFlags 测试头部参数解析
func TestParseHeaderFlags(t *testing.T) {
	headers, err := ParseHeaderFlags([]string{
		"User-Agent: MyBot/1.0",
		"Authorization: Bearer token-with: colon",
	})
	if err != nil {
		t.Fatalf("ParseHeaderFlags失败: %v", err)
	}

	if headers["User-Agent"] != "MyBot/1.0" {
		t.Errorf("User-Agent = %q", headers["User-Agent"])
	}
	// 只按第一个冒号拆分
	if headers["Authorization"] != "Bearer token-with: colon" {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}

	if _, err := ParseHeaderFlags([]string{"no-colon-here"}); err == nil {
		t.Error("缺少冒号的头部应报错")
	}
	if _, err := ParseHeaderFlags([]string{": empty-name"}); err == nil {
		t.Error("空头部名应报错")
	}

	empty, err := ParseHeaderFlags(nil)
	if err != nil || empty != nil {
		t.Errorf("空输入应返回nil, 实际: %v, %v", empty, err)
	}
}
