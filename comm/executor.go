package comm

// Executor decides when an asynchronous call actually runs. Whatever the
// policy, an implementation must run every submitted task exactly once;
// the task is what marks the pending entry resolved.
type Executor interface {
	Submit(task func())
}

// InlineExecutor runs each task on the submitting goroutine, so an
// asynchronous call is already resolved when CallAsync returns. This is
// the default policy.
type InlineExecutor struct{}

// Submit runs the task immediately.
func (InlineExecutor) Submit(task func()) { task() }

// ChannelExecutor queues tasks on a channel and runs them when Drain or
// Run is called, deferring resolution past CallAsync.
type ChannelExecutor struct {
	tasks chan func()
}

// NewChannelExecutor creates an executor buffering up to size tasks.
func NewChannelExecutor(size int) *ChannelExecutor {
	if size <= 0 {
		size = 64
	}
	return &ChannelExecutor{tasks: make(chan func(), size)}
}

// Submit queues the task. Blocks if the buffer is full.
func (e *ChannelExecutor) Submit(task func()) {
	e.tasks <- task
}

// Drain runs every queued task and returns how many ran.
func (e *ChannelExecutor) Drain() int {
	n := 0
	for {
		select {
		case task := <-e.tasks:
			task()
			n++
		default:
			return n
		}
	}
}

// Run consumes tasks until Close.
func (e *ChannelExecutor) Run() {
	for task := range e.tasks {
		task()
	}
}

// Close stops Run after the queue empties. Submit must not be called
// afterwards.
func (e *ChannelExecutor) Close() {
	close(e.tasks)
}
