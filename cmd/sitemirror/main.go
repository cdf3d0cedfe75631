package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/SiteMirror/internal/browser"
	"github.com/RecoveryAshes/SiteMirror/internal/core"
	"github.com/RecoveryAshes/SiteMirror/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// 镜像参数
	outputDir    string
	interactive  bool
	headless     bool
	waitTime     int
	settleWait   int
	maxDownloads int
	skipOnError  bool
	headers      []string

	// 批量处理参数
	urlFile         string
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "sitemirror [url]",
	Short: "JS渲染网站镜像工具",
	Long: `SiteMirror - JS渲染网站的完整镜像工具 (Go版本)

通过真实浏览器渲染页面,捕获JavaScript动态加载的资源,
将整个站点按原始目录结构保存到本地,支持:
  • 浏览器渲染,JS动态资源完整捕获
  • 脚本/样式表文本分析,发现代码中引用的资源
  • 同源深度优先爬取,页面访问去重
  • 交互式模式: 先登录/点击,再镜像当前状态
  • 批量URL处理
  • 自定义HTTP请求头

使用示例:
  # 镜像单个站点
  sitemirror https://example.com -o ./mirror

  # 交互式模式(可先在浏览器中登录)
  sitemirror https://example.com -i

  # 批量镜像
  sitemirror -f urls.txt

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 信号处理(Ctrl+C优雅退出)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			os.Exit(0)
		}()

		targetURL := ""
		if len(args) > 0 {
			targetURL = args[0]
		}

		// 没有任何目标时显示帮助
		if targetURL == "" && urlFile == "" {
			return cmd.Help()
		}

		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		appConfig.MergeCLIFlags(outputDir, interactive, cmd.Flags().Changed("headless"), headless)
		if cmd.Flags().Changed("wait") {
			appConfig.Crawl.WaitTime = waitTime
		}
		if cmd.Flags().Changed("settle-timeout") {
			appConfig.Crawl.SettleTimeout = settleWait
		}
		if cmd.Flags().Changed("max-downloads") {
			appConfig.Crawl.MaxDownloads = maxDownloads
		}
		if skipOnError {
			appConfig.Crawl.ContinueOnRenderError = true
		}

		// 命令行头部合并到配置
		cliHeaders, err := ParseHeaderFlags(headers)
		if err != nil {
			return err
		}
		if len(cliHeaders) > 0 {
			if appConfig.Crawl.Headers == nil {
				appConfig.Crawl.Headers = make(map[string]string)
			}
			for name, value := range cliHeaders {
				appConfig.Crawl.Headers[name] = value
			}
		}

		if err := ValidateFlags(targetURL, appConfig.Crawl); err != nil {
			return err
		}

		newRenderer := func() (browser.Renderer, error) {
			return browser.NewRodRenderer(appConfig.Crawl.Headless, appConfig.Crawl.Headers)
		}

		// 批量处理模式
		if urlFile != "" {
			if interactive {
				return fmt.Errorf("交互式模式不支持批量处理")
			}

			urls, err := utils.ReadURLsFromFile(urlFile)
			if err != nil {
				return fmt.Errorf("读取URL文件失败: %w", err)
			}

			batchMirror := core.NewBatchMirror(appConfig.Crawl, appConfig.Output.BaseDir, batchDelay, continueOnError, newRenderer)
			if _, err := batchMirror.MirrorBatch(urls); err != nil {
				return fmt.Errorf("批量镜像失败: %w", err)
			}

			utils.Info("✨ 批量镜像任务完成!")
			return nil
		}

		// 单URL镜像模式
		normalizedURL, err := NormalizeURL(targetURL)
		if err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}

		renderer, err := newRenderer()
		if err != nil {
			return fmt.Errorf("启动浏览器失败: %w", err)
		}
		defer renderer.Close()

		m, err := core.NewMirror(normalizedURL, appConfig.Crawl, appConfig.Output.BaseDir, renderer)
		if err != nil {
			return fmt.Errorf("创建镜像任务失败: %w", err)
		}

		if err := m.Run(); err != nil {
			return fmt.Errorf("镜像失败: %w", err)
		}

		// 显示统计结果
		stats := m.Stats()
		fmt.Println("\n==================================================")
		fmt.Println("📊 镜像统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 访问页面数: %d\n", stats.VisitedPages)
		fmt.Printf("✅ 页面快照数: %d\n", stats.PageFiles)
		fmt.Printf("✅ 资源文件数: %d\n", stats.ResourceFiles)
		fmt.Printf("🌐 外域资源数: %d\n", stats.ExternalResources)
		fmt.Printf("❌ 失败资源数: %d\n", stats.FailedResources)
		fmt.Printf("📦 总大小: %.2f MB\n", float64(stats.TotalSize)/(1024*1024))
		fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
		fmt.Println("==================================================")
		fmt.Printf("输出目录: %s\n", m.SiteDir())

		utils.Info("✨ 镜像任务完成!")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SiteMirror %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - JS渲染网站镜像工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// 镜像参数
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "输出目录 (默认: mirrored_site)")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "交互式模式: 先在浏览器中操作,再镜像当前状态")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().IntVarP(&waitTime, "wait", "w", 2, "页面加载后的固定等待时间(秒)")
	rootCmd.Flags().IntVar(&settleWait, "settle-timeout", 10, "动态资源安定等待上限(秒)")
	rootCmd.Flags().IntVar(&maxDownloads, "max-downloads", 8, "资源并发下载上限")
	rootCmd.Flags().BoolVar(&skipOnError, "skip-render-errors", false, "页面渲染失败时跳过该页继续")
	rootCmd.Flags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")

	// 批量处理参数
	rootCmd.Flags().StringVarP(&urlFile, "url-file", "f", "", "包含URL列表的文件路径")
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理URL间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
