package common

import (
	"strings"

	"github.com/gobwas/glob"
)

// MatchPattern はワイルドカードパターンマッチングを行う
// ワイルドカード（*）を含む場合はglob形式でマッチング、
// 含まない場合は部分一致で判定する
func MatchPattern(name, pattern string) bool {
	if strings.Contains(pattern, "*") {
		g, err := glob.Compile(pattern)
		if err != nil {
			return false
		}
		return g.Match(name)
	}
	// ワイルドカードなしの場合は部分一致
	return strings.Contains(name, pattern)
}
