package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// MaterializedPath 评论的祖先 id 序列，根评论为空。
// 数据库中存为点号连接的字符串，例如 "3.17.42"。
type MaterializedPath []uint

// ParsePath 解析点号连接的路径字符串
func ParsePath(s string) (MaterializedPath, error) {
	if s == "" {
		return MaterializedPath{}, nil
	}
	parts := strings.Split(s, ".")
	p := make(MaterializedPath, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid path segment %q in %q", part, s)
		}
		p = append(p, uint(id))
	}
	return p, nil
}

func (p MaterializedPath) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, id := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}

// Depth 等于祖先数量
func (p MaterializedPath) Depth() int { return len(p) }

// Child 返回以 id 为父节点的子评论路径，不修改 p
func (p MaterializedPath) Child(id uint) MaterializedPath {
	out := make(MaterializedPath, len(p), len(p)+1)
	copy(out, p)
	return append(out, id)
}

// HasPrefix 判断 prefix 是否为 p 的按段前缀
func (p MaterializedPath) HasPrefix(prefix MaterializedPath) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Value 实现 driver.Valuer
func (p MaterializedPath) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan 实现 sql.Scanner
func (p *MaterializedPath) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		s = ""
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into MaterializedPath", src)
	}
	parsed, err := ParsePath(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// GormDataType 映射为 text 列
func (MaterializedPath) GormDataType() string { return "text" }
