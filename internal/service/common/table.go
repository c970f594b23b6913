package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TableColumn はテーブルの列定義
type TableColumn struct {
	Header string
}

// FormatEmptyMessage は該当リソースがない場合のメッセージを返す
func FormatEmptyMessage(resourceType string) string {
	return fmt.Sprintf("%sが見つかりませんでした", resourceType)
}

// PrintTable はテーブルを標準出力に表示する
func PrintTable(title string, columns []TableColumn, data [][]string) {
	FprintTable(os.Stdout, title, columns, data)
}

// FprintTable はテーブルを表示する
// 日本語や絵文字を含むセルでも列が揃うよう表示幅で計算する
func FprintTable(w io.Writer, title string, columns []TableColumn, data [][]string) {
	if title != "" {
		fmt.Fprintf(w, "\n%s:\n", title)
	}

	// 各列の最大幅を計算（ヘッダーとデータの中で最大値を取得）
	colWidths := make([]int, len(columns))
	for i, col := range columns {
		colWidths[i] = runewidth.StringWidth(col.Header)
	}
	for _, row := range data {
		for i, cell := range row {
			if i < len(colWidths) {
				colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
			}
		}
	}

	// ヘッダー表示
	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = runewidth.FillRight(col.Header, colWidths[i])
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))

	// 区切り線
	for i := range columns {
		cells[i] = strings.Repeat("-", colWidths[i])
	}
	fmt.Fprintln(w, strings.Join(cells, " "))

	// データ行
	for _, row := range data {
		line := make([]string, 0, len(columns))
		for i, cell := range row {
			if i < len(columns) {
				line = append(line, runewidth.FillRight(cell, colWidths[i]))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(line, " "), " "))
	}
}
