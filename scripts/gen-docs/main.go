// gen-docs は ec2sched のコマンドリファレンスを docs/ 以下に生成する
//
//	docs/README.md       ルートコマンド
//	docs/<command>.md    トップレベルのコマンドごとに配下のサブコマンドをまとめたもの
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"ec2sched/cmd"
)

const inheritedFlagsHeading = "### Options inherited from parent commands"

func main() {
	docsDir := "./docs"
	if len(os.Args) > 1 {
		docsDir = os.Args[1]
	}

	count, err := generate(cmd.RootCmd, docsDir)
	if err != nil {
		log.Fatalf("Failed to generate documentation: %v", err)
	}
	fmt.Printf("✅ Documentation generated in %s (%d files)\n", docsDir, count)
}

// generate はdocsDirを作り直してドキュメントを書き出し、生成したファイル数を返す
func generate(root *cobra.Command, docsDir string) (int, error) {
	if err := os.RemoveAll(docsDir); err != nil {
		return 0, fmt.Errorf("failed to clean %s: %w", docsDir, err)
	}
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", docsDir, err)
	}

	disableAutoGenTag(root)

	readme, err := renderCommand(root)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(docsDir, "README.md"), []byte(readme), 0644); err != nil {
		return 0, err
	}

	groups := commandGroups(root)
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := renderGroup(name, groups[name])
		if err != nil {
			return 0, err
		}
		if err := os.WriteFile(filepath.Join(docsDir, name+".md"), []byte(content), 0644); err != nil {
			return 0, err
		}
	}
	return len(names) + 1, nil
}

// commandGroups はトップレベルのコマンドごとに、自身と配下の全コマンドを集める
func commandGroups(root *cobra.Command) map[string][]*cobra.Command {
	groups := make(map[string][]*cobra.Command)
	for _, top := range root.Commands() {
		if visible(top) {
			groups[top.Name()] = collect(top)
		}
	}
	return groups
}

func collect(c *cobra.Command) []*cobra.Command {
	commands := []*cobra.Command{c}
	for _, child := range c.Commands() {
		if visible(child) {
			commands = append(commands, collect(child)...)
		}
	}
	return commands
}

// disableAutoGenTag は生成日時のフッターを全コマンドで外す（再生成で差分を出さない）
func disableAutoGenTag(c *cobra.Command) {
	c.DisableAutoGenTag = true
	for _, child := range c.Commands() {
		disableAutoGenTag(child)
	}
}

func visible(c *cobra.Command) bool {
	return c.IsAvailableCommand() && !c.IsAdditionalHelpTopicCommand()
}

// renderGroup はトップレベルのコマンド1つ分のファイル内容を作る（目次付き）
func renderGroup(name string, commands []*cobra.Command) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Commands\n\n", name)
	fmt.Fprintf(&b, "This document describes all `%s` related commands.\n\n", name)
	b.WriteString("## Table of Contents\n\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "- [%s](#%s)\n", c.CommandPath(), anchor(c.CommandPath()))
	}
	b.WriteString("\n---\n\n")

	for _, c := range commands {
		content, err := renderCommand(c)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n---\n\n")
	}
	return b.String(), nil
}

// renderCommand はコマンド1つ分のMarkdownを作る
// AWS設定を読み込まないコマンドでは --region などの継承フラグを載せない
func renderCommand(c *cobra.Command) (string, error) {
	buf := new(bytes.Buffer)
	if err := doc.GenMarkdownCustom(c, buf, linkTarget); err != nil {
		return "", fmt.Errorf("failed to generate markdown for %s: %w", c.CommandPath(), err)
	}

	content := buf.String()
	if cmd.SkipsAwsSetup(c) {
		content = removeInheritedFlagsSection(content)
	}
	return content, nil
}

// linkTarget はcobraが作るリンク先（ec2sched_schedule_ls.md など）を生成するファイル構成に合わせる
//
//	ec2sched.md             -> README.md
//	ec2sched_schedule.md    -> schedule.md
//	ec2sched_schedule_ls.md -> schedule.md#ec2sched-schedule-ls
func linkTarget(link string) string {
	name := strings.TrimSuffix(link, ".md")
	if name == cmd.AppName {
		return "README.md"
	}

	parts := strings.Split(name, "_")
	if len(parts) < 2 || parts[0] != cmd.AppName {
		return link
	}
	if len(parts) == 2 {
		return parts[1] + ".md"
	}
	return parts[1] + ".md#" + anchor(strings.Join(parts, " "))
}

// anchor はMarkdownの見出し "## ec2sched ec2 start" に対するアンカー名
func anchor(commandPath string) string {
	return strings.ReplaceAll(commandPath, " ", "-")
}

// removeInheritedFlagsSection は継承フラグのセクションを次の見出しの手前まで取り除く
func removeInheritedFlagsSection(content string) string {
	start := strings.Index(content, inheritedFlagsHeading)
	if start < 0 {
		return content
	}

	rest := content[start+len(inheritedFlagsHeading):]
	end := strings.Index(rest, "\n#")
	if end < 0 {
		return content[:start]
	}
	return content[:start] + rest[end+1:]
}
