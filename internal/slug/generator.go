package slug

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"
)

const (
	// Charset 随机部分使用的字符集 (小写字母 + 数字)
	Charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	// Digits 数字后缀使用的字符集
	Digits = "0123456789"
	// MaxLength slug 最大长度
	MaxLength = 60
	// MinLength 标题清洗后低于该长度时补随机字符
	MinLength = 3
	// FallbackLength 补充的随机字符个数
	FallbackLength = 4
	// DefaultRandomLength 纯随机 slug 的默认长度
	DefaultRandomLength = 6
)

// reserved 与固定路由同名的 slug, 跳转时会被固定路由截获
var reserved = map[string]struct{}{
	"admin":   {},
	"health":  {},
	"links":   {},
	"swagger": {},
}

// IsReserved 判断 slug 是否与固定路由冲突
func IsReserved(s string) bool {
	_, ok := reserved[strings.ToLower(s)]
	return ok
}

// Generator 负责生成 URL 安全的 slug
type Generator struct {
	source io.Reader
}

// NewGenerator 创建一个使用加密安全随机源的生成器
func NewGenerator() *Generator {
	return &Generator{source: rand.Reader}
}

// Make 从文本生成 slug: 去掉所有非字母数字字符并转小写,
// 不足 3 个字符时追加 4 个随机字符, 最终截断到 60 个字符
func (g *Generator) Make(text string) string {
	s := Clean(text)
	if len(s) < MinLength {
		s += g.pick(Charset, FallbackLength)
	}
	return Truncate(s, MaxLength)
}

// Random 生成指定长度的纯随机 slug, length <= 0 时使用默认长度
func (g *Generator) Random(length int) string {
	if length <= 0 {
		length = DefaultRandomLength
	}
	return g.pick(Charset, length)
}

// Digits 生成指定长度的随机数字串, 用作冲突后缀
func (g *Generator) Digits(length int) string {
	return g.pick(Digits, length)
}

// WithSuffix 将 base 与后缀用 "-" 连接, 必要时截短 base 保证总长度不超过 60
func WithSuffix(base, suffix string) string {
	keep := MaxLength - len(suffix) - 1
	if keep < 0 {
		keep = 0
	}
	return Truncate(base, keep) + "-" + suffix
}

// Clean 只保留 ASCII 字母和数字, 并统一为小写
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// Truncate 截断到最多 n 个字符
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// pick 使用加密安全的随机数生成器从字符集中取 length 个字符
func (g *Generator) pick(charset string, length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		num, err := rand.Int(g.source, max)
		if err != nil {
			// rand.Reader 不会返回错误, 只有测试注入的随机源可能耗尽
			panic("slug: 随机源读取失败: " + err.Error())
		}
		b[i] = charset[num.Int64()]
	}
	return string(b)
}
