package config

// WorkerKeyStruct names the Redis lists consumed by background workers.
type WorkerKeyStruct struct {
	// AutosaveQueue carries autosaved answers waiting to be written to
	// exam_answer_drafts.
	AutosaveQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AutosaveQueue: "dlms:autosave_queue",
}
