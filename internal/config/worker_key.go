package config

type WorkerKeyStruct struct {
	// TimerExpiryQueue carries tests whose total-test timer ran out on a stream.
	TimerExpiryQueue string
}

var WorkerKey = &WorkerKeyStruct{
	TimerExpiryQueue: "timer_expiry_queue",
}
