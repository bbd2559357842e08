package platform

import "strings"

// BuildPublishText 组装发布文案：正文 + " #tag" 列表。
// 超出 limit 时从尾部逐个裁掉标签，正文本身永远不截断；
// 一个标签都塞不下时输出与正文完全一致。
func BuildPublishText(body string, tags []string, limit int) string {
	kept := len(tags)
	for kept > 0 {
		var sb strings.Builder
		sb.WriteString(body)
		for _, tag := range tags[:kept] {
			sb.WriteString(" #")
			sb.WriteString(tag)
		}
		if len([]rune(sb.String())) <= limit {
			return sb.String()
		}
		kept--
	}
	return body
}
