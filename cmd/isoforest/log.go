package main

// Logf logs a progress message when running verbosely
func (rcc *rootCmdConfig) Logf(format string, a ...interface{}) {
	if rcc.log == nil {
		return
	}
	rcc.log.Sugar().Infof(format, a...)
}
