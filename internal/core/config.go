package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/SiteMirror/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl   models.MirrorConfig `mapstructure:"crawl"`
	HTTP    HTTPConfig          `mapstructure:"http"`
	Logging LoggingConfig       `mapstructure:"logging"`
	Output  OutputConfig        `mapstructure:"output"`
}

// HTTPConfig HTTP请求配置
type HTTPConfig struct {
	Headers map[string]string `mapstructure:"headers"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sitemirror"))
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 头部配置合并到镜像配置,供浏览器和下载器共用
	if config.Crawl.Headers == nil {
		config.Crawl.Headers = config.HTTP.Headers
	}

	if err := config.Crawl.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 镜像配置默认值
	v.SetDefault("crawl.wait_time", 2)
	v.SetDefault("crawl.settle_timeout", 10)
	v.SetDefault("crawl.max_downloads", 8)
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.interactive", false)
	v.SetDefault("crawl.continue_on_render_error", false)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "mirrored_site")
}

// MergeCLIFlags 合并命令行参数到配置,命令行参数优先于配置文件
// headlessChanged标记--headless是否在命令行显式指定,未指定时保留配置文件的值
func (c *Config) MergeCLIFlags(outputDir string, interactive bool, headlessChanged bool, headless bool) {
	if outputDir != "" {
		c.Output.BaseDir = outputDir
	}
	if headlessChanged {
		c.Crawl.Headless = headless
	}
	if interactive {
		c.Crawl.Interactive = true
		// 交互模式需要可见的浏览器窗口
		c.Crawl.Headless = false
	}
}
