package minecraft

// Callback receives progress from long-running install steps. Calls may
// arrive from several goroutines but never concurrently.
type Callback interface {
	SetStatus(status string)
	SetProgress(value, max int)
}

// CallbackFuncs adapts plain functions to Callback. Nil funcs are ignored.
type CallbackFuncs struct {
	Status   func(string)
	Progress func(value, max int)
}

func (c CallbackFuncs) SetStatus(status string) {
	if c.Status != nil {
		c.Status(status)
	}
}

func (c CallbackFuncs) SetProgress(value, max int) {
	if c.Progress != nil {
		c.Progress(value, max)
	}
}
