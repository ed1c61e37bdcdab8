// duedate 计算借用到期时间。
// 输入优先级：明确日期 > 时长令牌（"5h"/"3d"）> 默认 3 天。
package duedate

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// 没给任何期限时的默认借期
const DefaultLoanDays = 3

var ErrPastDate = errors.New("expected return date is in the past")

// Resolve 宽松解析：任何无效输入都退回默认值，绝不报错。
// 创建借用走这里（历史行为，保持不变）。
func Resolve(now time.Time, explicit string, token string) time.Time {
	if explicit != "" {
		if t, err := time.Parse(time.RFC3339, explicit); err == nil {
			return t
		}
	}
	if t, ok := parseToken(now, token); ok {
		return t
	}
	return now.AddDate(0, 0, DefaultLoanDays)
}

// ResolveStrict 严格解析：转借走这里，给了就必须合法且不能是过去时间。
// 什么都没给仍然默认 3 天。
func ResolveStrict(now time.Time, explicit string, token string) (time.Time, error) {
	if explicit != "" {
		t, err := time.Parse(time.RFC3339, explicit)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid expected return date %q: %w", explicit, err)
		}
		if t.Before(now) {
			return time.Time{}, ErrPastDate
		}
		return t, nil
	}
	if token != "" {
		t, ok := parseToken(now, token)
		if !ok {
			return time.Time{}, fmt.Errorf("invalid loan duration %q, want e.g. \"5h\" or \"3d\"", token)
		}
		return t, nil
	}
	return now.AddDate(0, 0, DefaultLoanDays), nil
}

// parseToken 解析 "<正整数><h|d>"
func parseToken(now time.Time, token string) (time.Time, bool) {
	if len(token) < 2 {
		return time.Time{}, false
	}
	unit := token[len(token)-1]
	n, err := strconv.Atoi(token[:len(token)-1])
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	switch unit {
	case 'h':
		return now.Add(time.Duration(n) * time.Hour), true
	case 'd':
		return now.AddDate(0, 0, n), true
	}
	return time.Time{}, false
}
