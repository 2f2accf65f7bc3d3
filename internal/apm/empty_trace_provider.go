package apm

// emptyTraceProvider is used when tracing is disabled; spans go to the
// global no-op provider.
type emptyTraceProvider struct{}

func NewEmptyTraceProvider() TraceProvider {
	return emptyTraceProvider{}
}

func (emptyTraceProvider) Stop() error {
	return nil
}
