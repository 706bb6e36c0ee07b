package config

type WorkerKeyStruct struct {
	FinalizeResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	FinalizeResultsQueue: "finalize_results_queue",
}
