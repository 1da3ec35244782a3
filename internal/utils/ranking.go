package utils

import (
	"math"
	"time"
)

// 热度公式常量，已存储的 hotness_score 依赖这两个值，不可配置
const (
	HotnessGravity = 1.5
	HotnessOffset  = 2.0
)

// Hotness 计算文章热度: votes / (hours + 2)^1.5
func Hotness(voteCount int, createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()

	// 时间衰减 (分母)
	decay := math.Pow(hours+HotnessOffset, HotnessGravity)

	return float64(voteCount) / decay
}
