package config

type WorkerKeyStruct struct {
	PersistHistoriesQueue   string
	PersistReflectionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistHistoriesQueue:   "persist_histories_queue",
	PersistReflectionsQueue: "persist_reflections_queue",
}
