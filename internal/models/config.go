package models

import "fmt"

// MirrorConfig 镜像任务配置
type MirrorConfig struct {
	WaitTime              int               `json:"wait_time" mapstructure:"wait_time"`                               // 页面加载后的固定等待(秒) (默认:2)
	SettleTimeout         int               `json:"settle_timeout" mapstructure:"settle_timeout"`                     // 动态资源安定等待上限(秒) (默认:10)
	MaxDownloads          int               `json:"max_downloads" mapstructure:"max_downloads"`                       // 单页资源并发下载上限 (默认:8)
	Headless              bool              `json:"headless" mapstructure:"headless"`                                 // 无头浏览器模式 (默认:true)
	Interactive           bool              `json:"interactive" mapstructure:"interactive"`                           // 交互式探索模式
	ContinueOnRenderError bool              `json:"continue_on_render_error" mapstructure:"continue_on_render_error"` // 页面渲染失败时跳过该页继续 (默认:false,整体中止)
	Headers               map[string]string `json:"headers,omitempty" mapstructure:"headers"`                         // 自定义HTTP请求头
}

// Validate 验证配置
func (c *MirrorConfig) Validate() error {
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间")
	}
	if c.SettleTimeout < 1 || c.SettleTimeout > 120 {
		return fmt.Errorf("安定等待上限必须在1-120秒之间")
	}
	if c.MaxDownloads < 1 || c.MaxDownloads > 64 {
		return fmt.Errorf("并发下载数必须在1-64之间")
	}
	return nil
}
