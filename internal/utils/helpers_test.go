package utils

import (
	"os"
	"path/filepath"
	"testing"
)

// TestReadURLsFromFile 测试URL列表文件解析
func TestReadURLsFromFile(t *testing.T) {
	dir := t.TempDir()
	urlFile := filepath.Join(dir, "urls.txt")

	content := `# 目标站点列表
https://example.com

https://other.example.net/start
not-a-url
ftp://example.com/skip
`
	if err := os.WriteFile(urlFile, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	urls, err := ReadURLsFromFile(urlFile)
	if err != nil {
		t.Fatalf("ReadURLsFromFile失败: %v", err)
	}

	expected := []string{
		"https://example.com",
		"https://other.example.net/start",
	}
	if len(urls) != len(expected) {
		t.Fatalf("URL数量 = %d, 期望 %d (结果: %v)", len(urls), len(expected), urls)
	}
	for i, want := range expected {
		if urls[i] != want {
			t.Errorf("urls[%d] = %q, 期望 %q", i, urls[i], want)
		}
	}
}

// TestReadURLsFromFileEmpty 无有效URL时报错
func TestReadURLsFromFileEmpty(t *testing.T) {
	dir := t.TempDir()
	urlFile := filepath.Join(dir, "empty.txt")

	if err := os.WriteFile(urlFile, []byte("# 只有注释\n\n"), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	if _, err := ReadURLsFromFile(urlFile); err == nil {
		t.Error("没有有效URL时应返回错误")
	}
}

// TestReadURLsFromFileMissing 文件不存在时报错
func TestReadURLsFromFileMissing(t *testing.T) {
	if _, err := ReadURLsFromFile("/nonexistent/urls.txt"); err == nil {
		t.Error("文件不存在时应返回错误")
	}
}
