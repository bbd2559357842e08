package platform

// Platform 外部平台的封闭枚举。
// 新增平台必须同时补全 decay.go、charLimits、horizons 和适配器注册表，
// NewRegistry 在启动时做全量校验。
type Platform string

const (
	Twitter  Platform = "twitter"
	LinkedIn Platform = "linkedin"
	Threads  Platform = "threads"
)

// All 返回全部受支持的平台
func All() []Platform {
	return []Platform{Twitter, LinkedIn, Threads}
}

// Parse 将外部输入解析为平台枚举
func Parse(s string) (Platform, bool) {
	p := Platform(s)
	switch p {
	case Twitter, LinkedIn, Threads:
		return p, true
	}
	return "", false
}

// charLimits 各平台发布文案的字符预算
var charLimits = map[Platform]int{
	Twitter:  280,
	LinkedIn: 3000,
	Threads:  500,
}

// CharLimit 返回平台的文案字符上限
func CharLimit(p Platform) int {
	return charLimits[p]
}
