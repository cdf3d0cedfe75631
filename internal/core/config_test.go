package core

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigDefaults 无配置文件时使用默认值
func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig失败: %v", err)
	}

	if config.Crawl.WaitTime != 2 {
		t.Errorf("WaitTime = %d, 期望 2", config.Crawl.WaitTime)
	}
	if config.Crawl.SettleTimeout != 10 {
		t.Errorf("SettleTimeout = %d, 期望 10", config.Crawl.SettleTimeout)
	}
	if config.Crawl.MaxDownloads != 8 {
		t.Errorf("MaxDownloads = %d, 期望 8", config.Crawl.MaxDownloads)
	}
	if !config.Crawl.Headless {
		t.Error("Headless默认应为true")
	}
	if config.Crawl.ContinueOnRenderError {
		t.Error("ContinueOnRenderError默认应为false")
	}
	if config.Output.BaseDir != "mirrored_site" {
		t.Errorf("BaseDir = %q, 期望 mirrored_site", config.Output.BaseDir)
	}
	if config.Logging.Level != "info" {
		t.Errorf("日志级别 = %q, 期望 info", config.Logging.Level)
	}
}

// TestLoadConfigFromFile 配置文件覆盖默认值
func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
crawl:
  wait_time: 5
  max_downloads: 16
  continue_on_render_error: true
http:
  headers:
    User-Agent: "TestAgent/1.0"
output:
  base_dir: /tmp/mirror-out
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig失败: %v", err)
	}

	if config.Crawl.WaitTime != 5 {
		t.Errorf("WaitTime = %d, 期望 5", config.Crawl.WaitTime)
	}
	if config.Crawl.MaxDownloads != 16 {
		t.Errorf("MaxDownloads = %d, 期望 16", config.Crawl.MaxDownloads)
	}
	if !config.Crawl.ContinueOnRenderError {
		t.Error("ContinueOnRenderError应为true")
	}
	if config.Crawl.Headers["User-Agent"] != "TestAgent/1.0" {
		t.Errorf("头部未合并到镜像配置: %v", config.Crawl.Headers)
	}
	if config.Output.BaseDir != "/tmp/mirror-out" {
		t.Errorf("BaseDir = %q, 期望 /tmp/mirror-out", config.Output.BaseDir)
	}
	// 未覆盖的项保持默认
	if config.Crawl.SettleTimeout != 10 {
		t.Errorf("SettleTimeout = %d, 期望默认值 10", config.Crawl.SettleTimeout)
	}
}

// TestLoadConfigInvalid 非法配置被拒绝
func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
crawl:
  max_downloads: 0
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("max_downloads=0应被拒绝")
	}
}

// TestMergeCLIFlags 命令行参数覆盖配置
func TestMergeCLIFlags(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig失败: %v", err)
	}

	config.MergeCLIFlags("./custom-out", true, false, true)

	if config.Output.BaseDir != "./custom-out" {
		t.Errorf("BaseDir = %q, 期望 ./custom-out", config.Output.BaseDir)
	}
	if !config.Crawl.Interactive {
		t.Error("Interactive应为true")
	}
	// 交互模式强制可见浏览器
	if config.Crawl.Headless {
		t.Error("交互模式下Headless应为false")
	}
}

// TestMergeCLIFlagsHeadless 显式的--headless双向覆盖配置文件
func TestMergeCLIFlagsHeadless(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
crawl:
  headless: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	t.Run("命令行显式指定时覆盖", func(t *testing.T) {
		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig失败: %v", err)
		}
		config.MergeCLIFlags("", false, true, true)
		if !config.Crawl.Headless {
			t.Error("--headless=true应覆盖配置文件的false")
		}
	})

	t.Run("未指定时保留配置文件的值", func(t *testing.T) {
		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig失败: %v", err)
		}
		config.MergeCLIFlags("", false, false, true)
		if config.Crawl.Headless {
			t.Error("未显式指定--headless时应保留配置文件的false")
		}
	})
}
