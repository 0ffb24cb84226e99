package status

// Tracker 是外部任务状态跟踪器的最小接口。
// Begin 返回本次任务的跟踪 id，Complete 在任何清理路径上都必须被调用。
type Tracker interface {
	Begin(task string) string
	Complete(id string)
}

// Noop 在未配置跟踪存储时使用。
type Noop struct{}

func (Noop) Begin(string) string { return "" }

func (Noop) Complete(string) {}
