package browser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/RecoveryAshes/SiteMirror/internal/utils"
)

// InteractiveSession 交互式会话
// 在首页渲染完成后暂停,允许用户在真实浏览器中登录、点击、
// 触发懒加载,然后输入done继续镜像当前状态的页面
type InteractiveSession struct {
	renderer Renderer
	in       io.Reader
	out      io.Writer
}

// NewInteractiveSession 创建交互式会话
func NewInteractiveSession(renderer Renderer, in io.Reader, out io.Writer) *InteractiveSession {
	return &InteractiveSession{
		renderer: renderer,
		in:       in,
		out:      out,
	}
}

// Run 运行命令循环,直到用户输入done或输入流结束
func (s *InteractiveSession) Run() error {
	s.printHelp()

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			// 输入流结束,等同于done
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		command := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch command {
		case "done":
			fmt.Fprintln(s.out, "✅ 继续镜像当前页面状态")
			return nil

		case "help":
			s.printHelp()

		case "url":
			current, err := s.renderer.CurrentURL()
			if err != nil {
				utils.Warnf("获取当前URL失败: %v", err)
				fmt.Fprintf(s.out, "获取当前URL失败: %v\n", err)
				continue
			}
			fmt.Fprintf(s.out, "当前URL: %s\n", current)

		case "wait":
			fmt.Fprintln(s.out, "等待5秒...")
			s.renderer.Sleep(5 * time.Second)
			fmt.Fprintln(s.out, "等待完成")

		case "refresh":
			fmt.Fprintln(s.out, "刷新页面...")
			if err := s.renderer.Reload(); err != nil {
				utils.Warnf("刷新页面失败: %v", err)
				fmt.Fprintf(s.out, "刷新页面失败: %v\n", err)
				continue
			}
			s.renderer.Sleep(2 * time.Second)
			fmt.Fprintln(s.out, "刷新完成")

		case "":
			// 空行忽略

		default:
			fmt.Fprintf(s.out, "未知命令: %s (输入help查看可用命令)\n", command)
		}
	}
}

// printHelp 输出可用命令说明
func (s *InteractiveSession) printHelp() {
	fmt.Fprintln(s.out, "🌐 交互模式: 可在浏览器中登录/点击/滚动,完成后输入done继续")
	fmt.Fprintln(s.out, "可用命令:")
	fmt.Fprintln(s.out, "  done     完成交互,继续镜像")
	fmt.Fprintln(s.out, "  url      显示浏览器当前URL")
	fmt.Fprintln(s.out, "  wait     等待5秒")
	fmt.Fprintln(s.out, "  refresh  刷新页面并等待2秒")
	fmt.Fprintln(s.out, "  help     显示本帮助")
}
